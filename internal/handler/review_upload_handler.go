package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"reviewhub/internal/domain"
	"reviewhub/internal/service"
)

const progressEventName = "progress"

// ReviewUploadHandler accepts review file uploads and streams their
// ingestion progress.
type ReviewUploadHandler struct {
	uploadService service.ReviewUploadService
	pollInterval  time.Duration
	maxBodyBytes  int64
	bodyTimeout   time.Duration
}

// NewReviewUploadHandler creates a new ReviewUploadHandler. maxBodyBytes
// bounds a whole multipart request; zero disables the bound. bodyTimeout
// replaces the server read and write deadlines for an upload request; zero
// clears them.
func NewReviewUploadHandler(uploadService service.ReviewUploadService, pollInterval time.Duration, maxBodyBytes int64, bodyTimeout time.Duration) *ReviewUploadHandler {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &ReviewUploadHandler{
		uploadService: uploadService,
		pollInterval:  pollInterval,
		maxBodyBytes:  maxBodyBytes,
		bodyTimeout:   bodyTimeout,
	}
}

// Upload handles POST /api/v1/products/:id/reviews/upload
// @Summary Upload review files
// @Description Files are re-validated, stored and ingested in the background. Watch the returned task on the progress stream.
// @Tags reviews
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Product ID"
// @Param files formData file true "Review files (csv, xlsx, xls; up to 5)"
// @Param mappings formData string true "JSON array of column mappings aligned with files"
// @Param auto_analyze formData bool false "Request analysis after ingestion"
// @Success 202 {object} Response{data=UploadTicketResponse}
// @Failure 400 {object} ErrorResponseBody "Invalid files or mappings"
// @Failure 404 {object} ErrorResponseBody "Product not found"
// @Failure 408 {object} ErrorResponseBody "Upload did not finish in time"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Security BearerAuth
// @Router /products/{id}/reviews/upload [post]
func (h *ReviewUploadHandler) Upload(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	h.extendDeadlines(c)
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		respondFormError(c, err)
		return
	}
	defer form.RemoveAll()

	var mappings []domain.ColumnMapping
	if raw := form.Value["mappings"]; len(raw) > 0 && raw[0] != "" {
		if err := json.Unmarshal([]byte(raw[0]), &mappings); err != nil {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "mappings must be a JSON array of column mappings")
			return
		}
	}

	input := service.ReviewUploadInput{
		Files:    uploadFiles(form.File["files"]),
		Mappings: mappings,
	}
	if v := form.Value["auto_analyze"]; len(v) > 0 {
		input.AutoAnalyze = cast.ToBool(v[0])
	}

	ticket, err := h.uploadService.Upload(c.Request.Context(), userID, productID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, ticket)
}

// extendDeadlines moves the connection deadlines set from the server
// timeouts so a large body is not cut off mid-transfer.
func (h *ReviewUploadHandler) extendDeadlines(c *gin.Context) {
	var deadline time.Time
	if h.bodyTimeout > 0 {
		deadline = time.Now().Add(h.bodyTimeout)
	}
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetReadDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("reviewUploadHandler.Upload: set read deadline: %v", err)
	}
	if err := rc.SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("reviewUploadHandler.Upload: set write deadline: %v", err)
	}
}

// respondFormError separates an oversized, stalled or truncated body from
// a request that is not a usable multipart form.
func respondFormError(c *gin.Context, err error) {
	var (
		tooBig *http.MaxBytesError
		netErr net.Error
	)
	switch {
	case errors.As(err, &tooBig):
		HandleError(c, domain.ErrFileTooLarge)
	case errors.Is(err, os.ErrDeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		log.Printf("reviewUploadHandler.Upload: body read timed out: %v", err)
		RespondError(c, http.StatusRequestTimeout, "UPLOAD_TIMEOUT", "the upload did not finish within the allowed time")
	case errors.Is(err, io.ErrUnexpectedEOF):
		log.Printf("reviewUploadHandler.Upload: body ended early: %v", err)
		RespondError(c, http.StatusBadRequest, "UPLOAD_INTERRUPTED", "the upload ended before the request body was complete")
	default:
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "a multipart form with files and mappings is required")
	}
}

func uploadFiles(headers []*multipart.FileHeader) []service.UploadFile {
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// Progress handles GET /api/v1/products/:id/reviews/upload/progress/:taskId
// @Summary Stream upload progress
// @Description Server-sent events carrying {progress, message, status}. The stream closes once the task completes, fails or expires. The token may be passed as ?token=.
// @Tags reviews
// @Produce text/event-stream
// @Param id path int true "Product ID"
// @Param taskId path string true "Task ID"
// @Param token query string false "Access token for clients that cannot set headers"
// @Success 200 {object} domain.ProgressEvent
// @Failure 403 {object} ErrorResponseBody "Task belongs to another user"
// @Failure 404 {object} ErrorResponseBody "Task not found"
// @Security BearerAuth
// @Router /products/{id}/reviews/upload/progress/{taskId} [get]
func (h *ReviewUploadHandler) Progress(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		HandleError(c, domain.ErrTaskNotFound)
		return
	}

	task, err := h.uploadService.Task(userID, productID, taskID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if !h.emit(c, service.Event(task)) {
		return
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ev := service.ExpiredEvent()
		if task, err := h.uploadService.Task(userID, productID, taskID); err == nil {
			ev = service.Event(task)
		}
		if !h.emit(c, ev) {
			return
		}
	}
}

// emit writes one event and reports whether the stream should continue.
func (h *ReviewUploadHandler) emit(c *gin.Context, ev domain.ProgressEvent) bool {
	c.SSEvent(progressEventName, ev)
	c.Writer.Flush()
	return !ev.Status.Terminal()
}

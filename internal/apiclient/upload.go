package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

// UploadReviewFiles streams the files and their mappings as one multipart
// request. File content is never buffered whole in memory.
func (c *Client) UploadReviewFiles(ctx context.Context, productID int64, files []ingest.MappedFile) (*ingest.UploadTicket, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, files))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/products/%d/reviews/upload", productID), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := c.send(c.stream, req)
	pr.Close()
	if err != nil {
		return nil, err
	}

	var ticket ingest.UploadTicket
	if err := json.Unmarshal(unwrapData(data), &ticket); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if ticket.TaskID == "" {
		return nil, fmt.Errorf("upload response has no task id")
	}
	return &ticket, nil
}

func writeUploadForm(mw *multipart.Writer, files []ingest.MappedFile) error {
	mappings := make([]domain.ColumnMapping, 0, len(files))
	for _, f := range files {
		mappings = append(mappings, f.Mapping)
	}
	mappingJSON, err := json.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("encoding mappings: %w", err)
	}
	if err := mw.WriteField("mappings", string(mappingJSON)); err != nil {
		return err
	}

	for _, f := range files {
		if err := writeFilePart(mw, f.File); err != nil {
			return fmt.Errorf("%s: %w", f.File.Name, err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, f ingest.RawFile) error {
	contentType := f.MIMEType
	if contentType == "" {
		if ft, ok := ingest.FileTypeOf(f.Name); ok {
			contentType = domain.AllowedFileTypes[ft]
		} else {
			contentType = "application/octet-stream"
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(part, rc)
	return err
}

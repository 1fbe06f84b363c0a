package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/google/uuid"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
	"reviewhub/internal/port"
)

// sniffBytes is how much of each file is inspected for its real type.
const sniffBytes = 3072

// UploadFile is one file received in an upload request. Open may be called
// more than once.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ReviewUploadInput is one upload request: files and their column mappings,
// aligned by index.
type ReviewUploadInput struct {
	Files       []UploadFile
	Mappings    []domain.ColumnMapping
	AutoAnalyze bool
}

// UploadLimits bounds what a single request may carry.
type UploadLimits struct {
	MaxFiles         int
	MaxFileSizeBytes int64
}

// ReviewUploadService accepts review files for a product and schedules
// their ingestion.
type ReviewUploadService interface {
	Upload(ctx context.Context, userID uuid.UUID, productID int64, input ReviewUploadInput) (*ingest.UploadTicket, error)
	Task(userID uuid.UUID, productID int64, taskID uuid.UUID) (domain.UploadTask, error)
}

type reviewUploadService struct {
	productRepo port.ProductRepository
	fileRepo    port.ReviewFileRepository
	storage     port.ObjectStorage
	tasks       *UploadTaskManager
	queue       IngestQueue
	bucket      string
	limits      UploadLimits
}

// NewReviewUploadService creates a new ReviewUploadService implementation.
func NewReviewUploadService(
	productRepo port.ProductRepository,
	fileRepo port.ReviewFileRepository,
	storage port.ObjectStorage,
	tasks *UploadTaskManager,
	queue IngestQueue,
	bucket string,
	limits UploadLimits,
) ReviewUploadService {
	if limits.MaxFiles <= 0 || limits.MaxFiles > domain.MaxFilesPerBatch {
		limits.MaxFiles = domain.MaxFilesPerBatch
	}
	if limits.MaxFileSizeBytes <= 0 {
		limits.MaxFileSizeBytes = domain.MaxFileSizeBytes
	}
	return &reviewUploadService{
		productRepo: productRepo,
		fileRepo:    fileRepo,
		storage:     storage,
		tasks:       tasks,
		queue:       queue,
		bucket:      bucket,
		limits:      limits,
	}
}

func (s *reviewUploadService) Upload(ctx context.Context, userID uuid.UUID, productID int64, input ReviewUploadInput) (*ingest.UploadTicket, error) {
	if _, err := s.productRepo.GetByID(ctx, userID, productID); err != nil {
		return nil, err
	}

	switch {
	case len(input.Files) == 0:
		return nil, domain.ErrNoFiles
	case len(input.Files) > s.limits.MaxFiles:
		return nil, domain.ErrTooManyFiles
	case len(input.Mappings) != len(input.Files):
		return nil, domain.ErrMappingCount
	}

	// Everything is checked before anything is stored.
	types := make([]domain.FileType, len(input.Files))
	mappings := make([]domain.ColumnMapping, len(input.Files))
	for i, f := range input.Files {
		ft, err := s.admit(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		m := ingest.NormalizeMapping(input.Mappings[i])
		if err := ingest.ValidateMapping(m, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		types[i] = ft
		mappings[i] = m
	}

	task := s.tasks.Create(productID, userID)
	stored := make([]domain.ReviewFile, 0, len(input.Files))
	for i, f := range input.Files {
		rf, err := s.store(ctx, userID, productID, task.ID, f, types[i], mappings[i])
		if err != nil {
			s.abandon(ctx, task.ID, stored)
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		stored = append(stored, *rf)
	}

	err := s.queue.Enqueue(IngestJob{
		TaskID:      task.ID,
		ProductID:   productID,
		OwnerID:     userID,
		Files:       stored,
		AutoAnalyze: input.AutoAnalyze,
	})
	if err != nil {
		s.tasks.Fail(task.ID, err.Error())
		return nil, err
	}

	log.Printf("reviewUploadService.Upload: task %s queued with %d files for product %d", task.ID, len(stored), productID)
	return &ingest.UploadTicket{TaskID: task.ID.String(), FileCount: len(stored)}, nil
}

func (s *reviewUploadService) Task(userID uuid.UUID, productID int64, taskID uuid.UUID) (domain.UploadTask, error) {
	task, ok := s.tasks.Get(taskID)
	if !ok {
		return domain.UploadTask{}, domain.ErrTaskNotFound
	}
	if task.OwnerID != userID {
		return domain.UploadTask{}, domain.ErrForbidden
	}
	if task.ProductID != productID {
		return domain.UploadTask{}, domain.ErrTaskNotFound
	}
	return task, nil
}

// admit re-checks a file against the same rules the client applies, then
// sniffs its leading bytes because the declared type cannot be trusted.
func (s *reviewUploadService) admit(f UploadFile) (domain.FileType, error) {
	if f.Size > s.limits.MaxFileSizeBytes {
		return "", domain.ErrFileTooLarge
	}
	if err := ingest.Validate(ingest.RawFile{Name: f.Name, Size: f.Size, MIMEType: f.ContentType}, 0); err != nil {
		return "", err
	}
	ft, _ := ingest.FileTypeOf(f.Name)

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer rc.Close()
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if n == 0 {
		return "", domain.ErrEmptyFile
	}
	if err := ingest.ValidateContent(ft, head[:n]); err != nil {
		return "", err
	}
	return ft, nil
}

func (s *reviewUploadService) store(
	ctx context.Context,
	userID uuid.UUID,
	productID int64,
	taskID uuid.UUID,
	f UploadFile,
	ft domain.FileType,
	m domain.ColumnMapping,
) (*domain.ReviewFile, error) {
	fileID := uuid.New()
	key := fmt.Sprintf("reviews/%d/%s/%s.%s", productID, taskID, fileID, ft)
	contentType := domain.AllowedFileTypes[ft]

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer rc.Close()

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        rc,
		ContentType: contentType,
		Size:        f.Size,
	}); err != nil {
		log.Printf("reviewUploadService.store: %s: %v", f.Name, err)
		return nil, domain.ErrUploadFailed
	}

	rf := &domain.ReviewFile{
		ID:           fileID,
		ProductID:    productID,
		UploadedBy:   userID,
		TaskID:       taskID,
		OriginalName: path.Base(f.Name),
		FileType:     ft,
		FileSize:     f.Size,
		S3Bucket:     s.bucket,
		S3Key:        key,
		ContentType:  contentType,
		ReviewColumn: m.ReviewColumn,
		DateColumn:   m.DateColumn,
		RatingColumn: m.RatingColumn,
		Status:       domain.FileStatusUploaded,
	}
	if err := s.fileRepo.Create(ctx, rf); err != nil {
		if delErr := s.storage.Delete(ctx, s.bucket, key); delErr != nil {
			log.Printf("reviewUploadService.store: cleanup %s: %v", key, delErr)
		}
		return nil, err
	}
	return rf, nil
}

// abandon fails the task and removes objects already stored for it.
func (s *reviewUploadService) abandon(ctx context.Context, taskID uuid.UUID, stored []domain.ReviewFile) {
	s.tasks.Fail(taskID, "upload failed")
	for i := range stored {
		if err := s.storage.Delete(ctx, stored[i].S3Bucket, stored[i].S3Key); err != nil {
			log.Printf("reviewUploadService.abandon: %s: %v", stored[i].S3Key, err)
		}
		if err := s.fileRepo.UpdateStatus(ctx, stored[i].ID, domain.FileStatusFailed, 0, "upload aborted"); err != nil {
			log.Printf("reviewUploadService.abandon: %s: %v", stored[i].ID, err)
		}
	}
}

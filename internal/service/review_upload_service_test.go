package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
	"reviewhub/internal/service"
	"reviewhub/mocks"
)

type uploadDeps struct {
	productRepo *mocks.MockProductRepo
	fileRepo    *mocks.MockReviewFileRepo
	storage     *mocks.MockObjectStorage
	queue       *mocks.MockIngestQueue
	tasks       *service.UploadTaskManager
	svc         service.ReviewUploadService
}

func newUploadDeps(t *testing.T) *uploadDeps {
	t.Helper()
	d := &uploadDeps{
		productRepo: new(mocks.MockProductRepo),
		fileRepo:    new(mocks.MockReviewFileRepo),
		storage:     new(mocks.MockObjectStorage),
		queue:       new(mocks.MockIngestQueue),
		tasks:       service.NewUploadTaskManager(time.Minute),
	}
	t.Cleanup(d.tasks.Stop)
	d.svc = service.NewReviewUploadService(d.productRepo, d.fileRepo, d.storage, d.tasks, d.queue,
		"reviews-bucket", service.UploadLimits{MaxFiles: 5, MaxFileSizeBytes: 1 << 20})
	return d
}

func (d *uploadDeps) ownsProduct(userID uuid.UUID, productID int64) {
	d.productRepo.On("GetByID", mock.Anything, userID, productID).
		Return(&domain.Product{ID: productID, UserID: userID, Name: "Trail Shoe"}, nil)
}

func uploadFile(name, contentType, content string) service.UploadFile {
	return service.UploadFile{
		Name:        name,
		Size:        int64(len(content)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func reviewMapping() domain.ColumnMapping {
	return domain.ColumnMapping{ReviewColumn: "review", DateColumn: "date"}
}

const uploadCSV = "review,date\nGreat,2024-01-01\n"

func TestReviewUploadService_Upload_Success(t *testing.T) {
	d := newUploadDeps(t)
	userID := uuid.New()
	d.ownsProduct(userID, 3)

	blank := "  "
	var storedBody string
	d.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "reviews-bucket" &&
			strings.HasPrefix(in.Key, "reviews/3/") && strings.HasSuffix(in.Key, ".csv") &&
			in.ContentType == "text/csv"
	})).Run(func(args mock.Arguments) {
		data, _ := io.ReadAll(args.Get(1).(port.UploadInput).Body)
		storedBody = string(data)
	}).Return(&port.UploadOutput{Location: "s3://x"}, nil)
	d.fileRepo.On("Create", mock.Anything, mock.MatchedBy(func(f *domain.ReviewFile) bool {
		return f.OriginalName == "shoes.csv" && f.RatingColumn == nil && f.Status == domain.FileStatusUploaded
	})).Return(nil)
	d.queue.On("Enqueue", mock.MatchedBy(func(job service.IngestJob) bool {
		return job.ProductID == 3 && job.OwnerID == userID && len(job.Files) == 1 && job.AutoAnalyze
	})).Return(nil)

	ticket, err := d.svc.Upload(context.Background(), userID, 3, service.ReviewUploadInput{
		Files:       []service.UploadFile{uploadFile("shoes.csv", "text/csv", uploadCSV)},
		Mappings:    []domain.ColumnMapping{{ReviewColumn: " review ", DateColumn: "date", RatingColumn: &blank}},
		AutoAnalyze: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, ticket.FileCount)
	assert.Equal(t, uploadCSV, storedBody)

	taskID, err := uuid.Parse(ticket.TaskID)
	require.NoError(t, err)
	task, err := d.svc.Task(userID, 3, taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, task.Status)

	d.storage.AssertExpectations(t)
	d.fileRepo.AssertExpectations(t)
	d.queue.AssertExpectations(t)
}

func TestReviewUploadService_Upload_ProductNotOwned(t *testing.T) {
	d := newUploadDeps(t)
	userID := uuid.New()
	d.productRepo.On("GetByID", mock.Anything, userID, int64(3)).Return(nil, domain.ErrProductNotFound)

	_, err := d.svc.Upload(context.Background(), userID, 3, service.ReviewUploadInput{
		Files:    []service.UploadFile{uploadFile("shoes.csv", "text/csv", uploadCSV)},
		Mappings: []domain.ColumnMapping{reviewMapping()},
	})

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 0, d.tasks.Len())
}

func TestReviewUploadService_Upload_RejectsBeforeStoring(t *testing.T) {
	six := make([]service.UploadFile, 6)
	sixMappings := make([]domain.ColumnMapping, 6)
	for i := range six {
		six[i] = uploadFile("r.csv", "text/csv", uploadCSV)
		sixMappings[i] = reviewMapping()
	}

	cases := []struct {
		name  string
		input service.ReviewUploadInput
		want  error
	}{
		{"no files", service.ReviewUploadInput{}, domain.ErrNoFiles},
		{"too many files", service.ReviewUploadInput{Files: six, Mappings: sixMappings}, domain.ErrTooManyFiles},
		{"mapping count", service.ReviewUploadInput{
			Files: []service.UploadFile{uploadFile("r.csv", "", uploadCSV)},
		}, domain.ErrMappingCount},
		{"unsupported type", service.ReviewUploadInput{
			Files:    []service.UploadFile{uploadFile("notes.txt", "text/plain", uploadCSV)},
			Mappings: []domain.ColumnMapping{reviewMapping()},
		}, domain.ErrUnsupportedFileType},
		{"declared type mismatch", service.ReviewUploadInput{
			Files:    []service.UploadFile{uploadFile("r.csv", "image/png", uploadCSV)},
			Mappings: []domain.ColumnMapping{reviewMapping()},
		}, domain.ErrContentMismatch},
		{"sniffed type mismatch", service.ReviewUploadInput{
			Files:    []service.UploadFile{uploadFile("r.xlsx", "", uploadCSV)},
			Mappings: []domain.ColumnMapping{reviewMapping()},
		}, domain.ErrContentMismatch},
		{"too large", service.ReviewUploadInput{
			Files:    []service.UploadFile{{Name: "r.csv", Size: 2 << 20}},
			Mappings: []domain.ColumnMapping{reviewMapping()},
		}, domain.ErrFileTooLarge},
		{"empty file", service.ReviewUploadInput{
			Files:    []service.UploadFile{uploadFile("r.csv", "text/csv", "")},
			Mappings: []domain.ColumnMapping{reviewMapping()},
		}, domain.ErrEmptyFile},
		{"missing date column", service.ReviewUploadInput{
			Files:    []service.UploadFile{uploadFile("r.csv", "text/csv", uploadCSV)},
			Mappings: []domain.ColumnMapping{{ReviewColumn: "review"}},
		}, domain.ErrMappingRequired},
		{"same review and date column", service.ReviewUploadInput{
			Files:    []service.UploadFile{uploadFile("r.csv", "text/csv", uploadCSV)},
			Mappings: []domain.ColumnMapping{{ReviewColumn: "review", DateColumn: "review"}},
		}, domain.ErrMappingDuplicate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newUploadDeps(t)
			userID := uuid.New()
			d.ownsProduct(userID, 3)

			_, err := d.svc.Upload(context.Background(), userID, 3, tc.input)

			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, d.tasks.Len())
			d.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
		})
	}
}

func TestReviewUploadService_Upload_StorageFailureCleansUp(t *testing.T) {
	d := newUploadDeps(t)
	userID := uuid.New()
	d.ownsProduct(userID, 3)

	d.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil).Once()
	d.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("s3 unavailable")).Once()
	d.storage.On("Delete", mock.Anything, "reviews-bucket", mock.AnythingOfType("string")).Return(nil)
	d.fileRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	d.fileRepo.On("UpdateStatus", mock.Anything, mock.Anything, domain.FileStatusFailed, 0, "upload aborted").Return(nil)

	_, err := d.svc.Upload(context.Background(), userID, 3, service.ReviewUploadInput{
		Files: []service.UploadFile{
			uploadFile("a.csv", "text/csv", uploadCSV),
			uploadFile("b.csv", "text/csv", uploadCSV),
		},
		Mappings: []domain.ColumnMapping{reviewMapping(), reviewMapping()},
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	d.storage.AssertNumberOfCalls(t, "Delete", 1)
	d.fileRepo.AssertNumberOfCalls(t, "UpdateStatus", 1)
	d.queue.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestReviewUploadService_Upload_QueueFullFailsTask(t *testing.T) {
	d := newUploadDeps(t)
	userID := uuid.New()
	d.ownsProduct(userID, 3)

	d.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	d.fileRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	var taskID uuid.UUID
	d.queue.On("Enqueue", mock.Anything).Run(func(args mock.Arguments) {
		taskID = args.Get(0).(service.IngestJob).TaskID
	}).Return(domain.ErrQueueFull)

	_, err := d.svc.Upload(context.Background(), userID, 3, service.ReviewUploadInput{
		Files:    []service.UploadFile{uploadFile("a.csv", "text/csv", uploadCSV)},
		Mappings: []domain.ColumnMapping{reviewMapping()},
	})

	assert.ErrorIs(t, err, domain.ErrQueueFull)
	task, ok := d.tasks.Get(taskID)
	require.True(t, ok)
	assert.Equal(t, domain.TaskStatusError, task.Status)
}

func TestReviewUploadService_Task_Access(t *testing.T) {
	d := newUploadDeps(t)
	owner := uuid.New()
	task := d.tasks.Create(3, owner)

	_, err := d.svc.Task(owner, 3, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = d.svc.Task(uuid.New(), 3, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = d.svc.Task(owner, 4, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	got, err := d.svc.Task(owner, 3, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

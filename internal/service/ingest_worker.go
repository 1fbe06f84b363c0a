package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/montanaflynn/stats"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
	"reviewhub/internal/port"
)

// Progress checkpoints reported while a task runs.
const (
	progressStarted   = 5
	progressFilesSpan = 20
	progressFilesDone = 30

	defaultProcessTimeout = 30 * time.Minute
)

// IngestJob is one accepted upload waiting to be turned into reviews.
type IngestJob struct {
	TaskID      uuid.UUID
	ProductID   int64
	OwnerID     uuid.UUID
	Files       []domain.ReviewFile
	AutoAnalyze bool
}

// IngestQueue accepts jobs for background processing.
type IngestQueue interface {
	Enqueue(job IngestJob) error
}

// IngestConfig holds settings for the ingestion worker.
type IngestConfig struct {
	Concurrency    int
	QueueSize      int
	ProcessTimeout time.Duration
}

// IngestWorker reads stored review files and inserts their rows as reviews,
// reporting progress through the task manager.
type IngestWorker struct {
	tasks       *UploadTaskManager
	storage     port.ObjectStorage
	reviewRepo  port.ReviewRepository
	fileRepo    port.ReviewFileRepository
	productRepo port.ProductRepository
	userRepo    port.UserRepository
	email       port.EmailSender
	cfg         IngestConfig
	jobs        chan IngestJob
	wg          sync.WaitGroup
}

// NewIngestWorker creates a new IngestWorker.
func NewIngestWorker(
	tasks *UploadTaskManager,
	storage port.ObjectStorage,
	reviewRepo port.ReviewRepository,
	fileRepo port.ReviewFileRepository,
	productRepo port.ProductRepository,
	userRepo port.UserRepository,
	email port.EmailSender,
	cfg IngestConfig,
) *IngestWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = defaultProcessTimeout
	}
	return &IngestWorker{
		tasks:       tasks,
		storage:     storage,
		reviewRepo:  reviewRepo,
		fileRepo:    fileRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		email:       email,
		cfg:         cfg,
		jobs:        make(chan IngestJob, cfg.QueueSize),
	}
}

// Enqueue hands a job to the worker without blocking.
func (w *IngestWorker) Enqueue(job IngestJob) error {
	select {
	case w.jobs <- job:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Start dispatches queued jobs until ctx is canceled. It blocks until all
// in-flight jobs have finished.
func (w *IngestWorker) Start(ctx context.Context) {
	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("ingestWorker: started (concurrency=%d, queue=%d)", w.cfg.Concurrency, w.cfg.QueueSize)

	for {
		select {
		case <-ctx.Done():
			log.Printf("ingestWorker: shutting down, waiting for in-flight jobs...")
			w.wg.Wait()
			log.Printf("ingestWorker: shutdown complete")
			return
		case job := <-w.jobs:
			select {
			case sem <- struct{}{}: // acquire
			case <-ctx.Done():
				w.tasks.Fail(job.TaskID, "processing aborted: server shutting down")
				continue
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer func() { <-sem }() // release

				// A fresh context lets in-flight jobs finish during shutdown.
				jobCtx, cancel := context.WithTimeout(context.Background(), w.cfg.ProcessTimeout)
				defer cancel()

				w.Process(jobCtx, job)
			}()
		}
	}
}

// fileOutcome counts what happened to the rows of one file.
type fileOutcome struct {
	inserted   int
	skipped    int
	duplicates int
	ratings    []float64
}

// Process runs one job to completion and returns its report.
func (w *IngestWorker) Process(ctx context.Context, job IngestJob) *domain.IngestReport {
	report := &domain.IngestReport{
		TaskID:    job.TaskID,
		ProductID: job.ProductID,
		Files:     len(job.Files),
	}
	log.Printf("ingestWorker.Process: task %s, product %d, %d files", job.TaskID, job.ProductID, len(job.Files))

	w.tasks.Update(job.TaskID, progressStarted, "processing started", domain.TaskStatusProcessing)

	var fileErrs *multierror.Error
	var ratings []float64
	for i := range job.Files {
		f := &job.Files[i]
		pct := progressStarted + i*progressFilesSpan/len(job.Files)
		w.tasks.Update(job.TaskID, pct,
			fmt.Sprintf("processing file %d of %d", i+1, len(job.Files)), domain.TaskStatusProcessing)

		out, err := w.processFile(ctx, job.ProductID, f)
		if err != nil {
			if ctx.Err() != nil {
				w.fail(job, report, fmt.Errorf("%s: %w", f.OriginalName, ctx.Err()))
				return report
			}
			fileErrs = multierror.Append(fileErrs, fmt.Errorf("%s: %w", f.OriginalName, err))
			w.markFile(ctx, f.ID, domain.FileStatusFailed, 0, err.Error())
			continue
		}
		report.Inserted += out.inserted
		report.Skipped += out.skipped
		report.Duplicates += out.duplicates
		ratings = append(ratings, out.ratings...)
		w.markFile(ctx, f.ID, domain.FileStatusProcessed, out.inserted, "")
	}

	if fileErrs != nil {
		for _, e := range fileErrs.Errors {
			report.FileErrors = append(report.FileErrors, e.Error())
		}
		log.Printf("ingestWorker.Process: task %s file errors: %v", job.TaskID, fileErrs.ErrorOrNil())
	}
	report.MeanRating, report.MedianRating = ratingSummary(ratings)

	w.tasks.Update(job.TaskID, progressFilesDone,
		fmt.Sprintf("files processed (%d inserted)", report.Inserted), domain.TaskStatusProcessing)

	if job.AutoAnalyze {
		log.Printf("ingestWorker.Process: task %s requested analysis; no analyzer is configured", job.TaskID)
	}

	w.tasks.Complete(job.TaskID, completionMessage(report))
	log.Printf("ingestWorker.Process: task %s completed: inserted=%d skipped=%d duplicates=%d errors=%d",
		job.TaskID, report.Inserted, report.Skipped, report.Duplicates, len(report.FileErrors))

	w.sendReport(ctx, job, report)
	return report
}

func (w *IngestWorker) processFile(ctx context.Context, productID int64, f *domain.ReviewFile) (*fileOutcome, error) {
	mapping := f.Mapping()
	if !mapping.Complete() {
		return nil, domain.ErrMappingRequired
	}
	if _, ok := ingest.FileTypeOf(f.OriginalName); !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	body, err := w.storage.Open(ctx, f.S3Bucket, f.S3Key)
	if err != nil {
		return nil, fmt.Errorf("reading stored file: %w", err)
	}
	defer body.Close()

	table, err := ingest.ReadTable(ctx, ingest.FromReader(f.OriginalName, f.ContentType, f.FileSize, body))
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, errors.New("no data rows")
	}

	steam := IsSteamExport(table.Headers)
	out := &fileOutcome{}
	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := strings.TrimSpace(row[mapping.ReviewColumn])
		if text == "" {
			out.skipped++
			continue
		}
		date, ok := ParseReviewDate(row[mapping.DateColumn])
		if !ok {
			out.skipped++
			continue
		}
		rating := RowRating(row, mapping, steam)

		dup, err := w.reviewRepo.Exists(ctx, productID, text, date)
		if err != nil {
			log.Printf("ingestWorker.processFile: duplicate check failed for %s: %v", f.OriginalName, err)
		} else if dup {
			out.duplicates++
			continue
		}

		fileID := f.ID
		review := &domain.Review{
			ProductID:  productID,
			FileID:     &fileID,
			ReviewText: text,
			ReviewDate: date,
			Rating:     rating,
		}
		if err := w.reviewRepo.Create(ctx, review); err != nil {
			log.Printf("ingestWorker.processFile: insert failed for %s: %v", f.OriginalName, err)
			out.skipped++
			continue
		}
		out.inserted++
		out.ratings = append(out.ratings, rating)
	}
	return out, nil
}

func (w *IngestWorker) fail(job IngestJob, report *domain.IngestReport, err error) {
	log.Printf("ingestWorker.Process: task %s failed: %v", job.TaskID, err)
	report.FileErrors = append(report.FileErrors, err.Error())
	w.tasks.Fail(job.TaskID, "processing failed: "+err.Error())
}

func (w *IngestWorker) markFile(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, rows int, msg string) {
	if err := w.fileRepo.UpdateStatus(ctx, fileID, status, rows, msg); err != nil {
		log.Printf("ingestWorker.markFile: file %s: %v", fileID, err)
	}
}

func (w *IngestWorker) sendReport(ctx context.Context, job IngestJob, report *domain.IngestReport) {
	user, err := w.userRepo.GetByID(ctx, job.OwnerID)
	if err != nil {
		log.Printf("ingestWorker.sendReport: loading owner %s: %v", job.OwnerID, err)
		return
	}
	if product, err := w.productRepo.GetByID(ctx, job.OwnerID, job.ProductID); err == nil {
		report.ProductName = product.Name
	}
	if err := w.email.SendIngestionReport(ctx, user.Email, user.FullName, report); err != nil {
		log.Printf("ingestWorker.sendReport: task %s: %v", job.TaskID, err)
	}
}

func ratingSummary(ratings []float64) (mean, median float64) {
	if len(ratings) == 0 {
		return 0, 0
	}
	mean, _ = stats.Mean(ratings)
	median, _ = stats.Median(ratings)
	mean, _ = stats.Round(mean, 2)
	median, _ = stats.Round(median, 2)
	return mean, median
}

func completionMessage(r *domain.IngestReport) string {
	msg := fmt.Sprintf("upload complete: %d inserted, %d duplicates, %d skipped", r.Inserted, r.Duplicates, r.Skipped)
	if n := len(r.FileErrors); n > 0 {
		msg += fmt.Sprintf(", %d file(s) failed", n)
	}
	return msg
}

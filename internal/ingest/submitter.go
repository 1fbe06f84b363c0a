package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"reviewhub/internal/domain"
)

// Submission defaults.
const (
	DefaultCompletionGrace = 5 * time.Second
	DefaultReattachDelay   = 500 * time.Millisecond

	// CompletionFallbackMessage finalizes progress when the backend stream
	// ends without a terminal signal.
	CompletionFallbackMessage = "processing complete"
)

// ProductInput describes a product to create before uploading reviews.
type ProductInput struct {
	Name       string `json:"product_name" yaml:"name"`
	Brand      string `json:"brand,omitempty" yaml:"brand,omitempty"`
	CategoryID int64  `json:"category_id" yaml:"category_id"`
}

// UploadTicket identifies the server-side task processing an upload.
type UploadTicket struct {
	TaskID    string `json:"task_id"`
	FileCount int    `json:"file_count"`
}

// Backend is the remote service a batch is submitted to.
type Backend interface {
	CreateProduct(ctx context.Context, in ProductInput) (int64, error)
	UploadReviewFiles(ctx context.Context, productID int64, files []MappedFile) (*UploadTicket, error)
	// WatchProgress delivers progress signals until the stream closes. It
	// returns nil when the server ends the stream and domain.ErrTaskNotFound
	// when the task is unknown.
	WatchProgress(ctx context.Context, productID int64, taskID string, emit func(domain.ProgressEvent)) error
}

// Batch is one submission: a product (new or existing) and its files.
type Batch struct {
	ProductID int64
	Product   *ProductInput
	Files     []MappedFile
}

// Progress is the percent complete and current status message.
type Progress struct {
	Percent int
	Message string
}

// State is the lifecycle of a Submitter.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Outcome classifies a finished submission.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means the product was created but its files were not
	// ingested.
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// Result is the final report of a submission.
type Result struct {
	Outcome        Outcome
	ProductID      int64
	ProductCreated bool
	TaskID         string
	Message        string
	// Err is set when nothing succeeded.
	Err error
	// UploadErr is set when the file upload or its processing failed.
	UploadErr error
}

// OK reports whether the product exists after the submission.
func (r *Result) OK() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomePartial
}

// SubmitterConfig tunes progress tracking.
type SubmitterConfig struct {
	CompletionGrace time.Duration
	ReattachDelay   time.Duration
}

// Submitter sends batches to a Backend, one at a time.
type Submitter struct {
	backend Backend
	cfg     SubmitterConfig

	mu       sync.Mutex
	state    State
	progress Progress
}

// NewSubmitter creates a Submitter. Zero config values take defaults.
func NewSubmitter(backend Backend, cfg SubmitterConfig) *Submitter {
	if cfg.CompletionGrace <= 0 {
		cfg.CompletionGrace = DefaultCompletionGrace
	}
	if cfg.ReattachDelay <= 0 {
		cfg.ReattachDelay = DefaultReattachDelay
	}
	return &Submitter{backend: backend, cfg: cfg, state: StateIdle}
}

// State returns the current lifecycle state.
func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the latest forwarded progress.
func (s *Submitter) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Upload is a running submission.
type Upload struct {
	events chan Progress
	done   chan struct{}
	result *Result
}

// Events streams progress. The channel is closed when the submission
// finishes. Sends never block: if the buffer is full the oldest pending
// event is dropped.
func (u *Upload) Events() <-chan Progress {
	return u.events
}

// Done is closed when the result is available.
func (u *Upload) Done() <-chan struct{} {
	return u.done
}

// Wait blocks until the submission finishes and returns its result.
func (u *Upload) Wait() *Result {
	<-u.done
	return u.result
}

func (u *Upload) send(p Progress) {
	select {
	case u.events <- p:
		return
	default:
	}
	select {
	case <-u.events:
	default:
	}
	u.events <- p
}

// Start begins submitting b in the background.
func (s *Submitter) Start(ctx context.Context, b Batch) (*Upload, error) {
	if b.ProductID == 0 && b.Product == nil {
		return nil, domain.ErrProductRequired
	}
	for _, f := range b.Files {
		if !f.Mapping.Complete() {
			return nil, domain.ErrFilesNotMapped
		}
	}

	s.mu.Lock()
	if s.state == StateUploading {
		s.mu.Unlock()
		return nil, domain.ErrSubmissionInProgress
	}
	s.state = StateUploading
	s.progress = Progress{}
	s.mu.Unlock()

	u := &Upload{
		events: make(chan Progress, 32),
		done:   make(chan struct{}),
	}
	go func() {
		res := s.run(ctx, b, u)
		s.mu.Lock()
		if res.Outcome == OutcomeSuccess {
			s.state = StateCompleted
		} else {
			s.state = StateFailed
		}
		s.mu.Unlock()
		u.result = res
		close(u.events)
		close(u.done)
	}()
	return u, nil
}

// Submit runs b to completion, calling onProgress for every event.
func (s *Submitter) Submit(ctx context.Context, b Batch, onProgress func(Progress)) (*Result, error) {
	u, err := s.Start(ctx, b)
	if err != nil {
		return nil, err
	}
	for p := range u.Events() {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return u.Wait(), nil
}

// forward clamps p to 0..100, never lets the percent move backwards and
// drops exact repeats.
func (s *Submitter) forward(u *Upload, p Progress) {
	if p.Percent < 0 {
		p.Percent = 0
	}
	if p.Percent > 100 {
		p.Percent = 100
	}

	s.mu.Lock()
	if p.Percent < s.progress.Percent {
		p.Percent = s.progress.Percent
	}
	if p == s.progress {
		s.mu.Unlock()
		return
	}
	s.progress = p
	s.mu.Unlock()

	u.send(p)
}

func (s *Submitter) run(ctx context.Context, b Batch, u *Upload) *Result {
	u.send(Progress{})

	res := &Result{ProductID: b.ProductID}
	if res.ProductID == 0 {
		id, err := s.backend.CreateProduct(ctx, *b.Product)
		if err != nil {
			log.Printf("ingest.Submit: product creation failed: %v", err)
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("creating product: %w", err)
			res.Message = res.Err.Error()
			return res
		}
		res.ProductID = id
		res.ProductCreated = true
	}

	if len(b.Files) == 0 {
		res.Outcome = OutcomeSuccess
		res.Message = "product saved; no review files to upload"
		s.forward(u, Progress{Percent: 100, Message: res.Message})
		return res
	}

	s.forward(u, Progress{Percent: 0, Message: fmt.Sprintf("uploading %d file(s)", len(b.Files))})
	ticket, err := s.backend.UploadReviewFiles(ctx, res.ProductID, b.Files)
	if err != nil {
		log.Printf("ingest.Submit: upload for product %d failed: %v", res.ProductID, err)
		return s.uploadFailed(res, fmt.Errorf("uploading review files: %w", err))
	}
	res.TaskID = ticket.TaskID

	final, err := s.watch(ctx, u, res.ProductID, ticket.TaskID)
	if err != nil {
		return s.uploadFailed(res, err)
	}
	res.Outcome = OutcomeSuccess
	res.Message = final.Message
	s.forward(u, final)
	return res
}

func (s *Submitter) uploadFailed(res *Result, err error) *Result {
	res.UploadErr = err
	res.Message = err.Error()
	if res.ProductCreated {
		res.Outcome = OutcomePartial
		return res
	}
	res.Outcome = OutcomeFailed
	res.Err = err
	return res
}

// watch follows the progress stream until a terminal signal. A stream that
// ends early is re-attached until the completion grace period runs out,
// after which completion is assumed.
func (s *Submitter) watch(ctx context.Context, u *Upload, productID int64, taskID string) (Progress, error) {
	fallback := Progress{Percent: 100, Message: CompletionFallbackMessage}
	var graceEnds time.Time

	for {
		var terminal *domain.ProgressEvent
		err := s.backend.WatchProgress(ctx, productID, taskID, func(ev domain.ProgressEvent) {
			if terminal != nil {
				return
			}
			if ev.Status.Terminal() {
				evCopy := ev
				terminal = &evCopy
				return
			}
			s.forward(u, Progress{Percent: ev.Progress, Message: ev.Message})
		})

		if terminal != nil {
			switch terminal.Status {
			case domain.TaskStatusCompleted:
				msg := terminal.Message
				if msg == "" {
					msg = CompletionFallbackMessage
				}
				return Progress{Percent: 100, Message: msg}, nil
			case domain.TaskStatusError:
				msg := terminal.Message
				if msg == "" {
					msg = "processing failed"
				}
				return Progress{}, fmt.Errorf("processing review files: %s", msg)
			default:
				return fallback, nil
			}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Progress{}, ctxErr
		}
		if errors.Is(err, domain.ErrTaskNotFound) {
			return fallback, nil
		}
		if err != nil {
			log.Printf("ingest.Submit: progress stream for task %s interrupted: %v", taskID, err)
		}

		now := time.Now()
		if graceEnds.IsZero() {
			graceEnds = now.Add(s.cfg.CompletionGrace)
		}
		remaining := graceEnds.Sub(now)
		if remaining <= 0 {
			return fallback, nil
		}
		delay := s.cfg.ReattachDelay
		if delay > remaining {
			delay = remaining
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Progress{}, ctx.Err()
		case <-timer.C:
		}
	}
}

package service

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"reviewhub/internal/domain"
)

const taskCreatedMessage = "preparing upload"

// UploadTaskManager keeps ingestion task state in memory. Tasks are
// forgotten ttl after creation whatever their status; a stream that
// polls a forgotten task reports it as expired.
type UploadTaskManager struct {
	mu     sync.RWMutex
	tasks  map[uuid.UUID]*domain.UploadTask
	timers map[uuid.UUID]*time.Timer
	ttl    time.Duration
}

// NewUploadTaskManager creates a task manager with the given retention.
func NewUploadTaskManager(ttl time.Duration) *UploadTaskManager {
	return &UploadTaskManager{
		tasks:  make(map[uuid.UUID]*domain.UploadTask),
		timers: make(map[uuid.UUID]*time.Timer),
		ttl:    ttl,
	}
}

// Create registers a pending task and schedules its removal.
func (m *UploadTaskManager) Create(productID int64, ownerID uuid.UUID) domain.UploadTask {
	now := time.Now().UTC()
	task := &domain.UploadTask{
		ID:        uuid.New(),
		ProductID: productID,
		OwnerID:   ownerID,
		Message:   taskCreatedMessage,
		Status:    domain.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.tasks[task.ID] = task
	if m.ttl > 0 {
		id := task.ID
		m.timers[id] = time.AfterFunc(m.ttl, func() { m.Remove(id) })
	}
	m.mu.Unlock()

	log.Printf("uploadTaskManager.Create: task %s for product %d", task.ID, productID)
	return *task
}

// Get returns a copy of the task.
func (m *UploadTaskManager) Get(id uuid.UUID) (domain.UploadTask, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return domain.UploadTask{}, false
	}
	return *task, true
}

// Update records progress. It reports false when the task is gone.
func (m *UploadTaskManager) Update(id uuid.UUID, progress int, message string, status domain.TaskStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		log.Printf("uploadTaskManager.Update: task %s not found", id)
		return false
	}
	setTask(task, progress, message, status)
	return true
}

// Complete marks the task completed at 100%.
func (m *UploadTaskManager) Complete(id uuid.UUID, message string) bool {
	return m.Update(id, 100, message, domain.TaskStatusCompleted)
}

// Fail marks the task as errored, keeping the progress it reached.
func (m *UploadTaskManager) Fail(id uuid.UUID, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		log.Printf("uploadTaskManager.Fail: task %s not found", id)
		return false
	}
	setTask(task, task.Progress, message, domain.TaskStatusError)
	return true
}

// setTask must be called with mu held.
func setTask(task *domain.UploadTask, progress int, message string, status domain.TaskStatus) {
	task.Progress = min(max(progress, 0), 100)
	task.Message = message
	task.Status = status
	task.UpdatedAt = time.Now().UTC()
}

// Remove forgets the task. Removing an unknown task is a no-op.
func (m *UploadTaskManager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
	if _, ok := m.tasks[id]; ok {
		delete(m.tasks, id)
		log.Printf("uploadTaskManager.Remove: task %s removed", id)
	}
}

// Len returns the number of live tasks.
func (m *UploadTaskManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tasks)
}

// Stop cancels every pending removal timer.
func (m *UploadTaskManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}

// Event converts a task snapshot into its progress stream payload.
func Event(task domain.UploadTask) domain.ProgressEvent {
	return domain.ProgressEvent{
		Progress: task.Progress,
		Message:  task.Message,
		Status:   task.Status,
	}
}

// ExpiredEvent is streamed when a task disappears while being watched.
func ExpiredEvent() domain.ProgressEvent {
	return domain.ProgressEvent{
		Progress: 100,
		Message:  "upload task expired",
		Status:   domain.TaskStatusExpired,
	}
}

package ingest

import (
	"github.com/google/uuid"

	"reviewhub/internal/domain"
)

// MappedFile is a file whose column mapping has been confirmed.
type MappedFile struct {
	ID      uuid.UUID
	File    RawFile
	Mapping domain.ColumnMapping
	Preview *domain.TablePreview
}

// NewMappedFile assigns a fresh id to a confirmed file.
func NewMappedFile(file RawFile, mapping domain.ColumnMapping, preview *domain.TablePreview) MappedFile {
	return MappedFile{ID: uuid.New(), File: file, Mapping: mapping, Preview: preview}
}

// Queue holds mapped files in the order they were added. The batch cap is
// enforced by Validate at admission, not here.
type Queue struct {
	files []MappedFile
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add appends f. A second file with the same id is rejected.
func (q *Queue) Add(f MappedFile) error {
	for _, existing := range q.files {
		if existing.ID == f.ID {
			return domain.ErrDuplicateFile
		}
	}
	q.files = append(q.files, f)
	return nil
}

// Remove drops the file with the given id. Unknown ids are ignored.
func (q *Queue) Remove(id uuid.UUID) {
	for i, f := range q.files {
		if f.ID == id {
			q.files = append(q.files[:i:i], q.files[i+1:]...)
			return
		}
	}
}

// List returns a copy of the queued files in insertion order.
func (q *Queue) List() []MappedFile {
	out := make([]MappedFile, len(q.files))
	copy(out, q.files)
	return out
}

// Len returns the number of queued files.
func (q *Queue) Len() int {
	return len(q.files)
}

// AllMapped is true when the queue is non-empty and every file has both a
// review and a date column.
func (q *Queue) AllMapped() bool {
	if len(q.files) == 0 {
		return false
	}
	for _, f := range q.files {
		if !f.Mapping.Complete() {
			return false
		}
	}
	return true
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.files = nil
}

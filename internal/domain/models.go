package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account that owns products.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Category is a fixed product classification.
type Category struct {
	ID   int64  `db:"category_id" json:"category_id"`
	Name string `db:"category_name" json:"category_name"`
}

// Product is the subject that uploaded reviews are attached to.
type Product struct {
	ID         int64     `db:"product_id" json:"product_id"`
	Name       string    `db:"product_name" json:"product_name"`
	Brand      *string   `db:"brand" json:"brand"`
	CategoryID int64     `db:"category_id" json:"category_id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Review is a single ingested review row.
type Review struct {
	ID         int64      `db:"review_id" json:"review_id"`
	ProductID  int64      `db:"product_id" json:"product_id"`
	FileID     *uuid.UUID `db:"file_id" json:"file_id,omitempty"`
	ReviewText string     `db:"review_text" json:"review_text"`
	ReviewDate time.Time  `db:"review_date" json:"review_date"`
	Rating     float64    `db:"rating" json:"rating"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ReviewFile is the stored copy of an uploaded review file together with
// the column mapping the user confirmed for it.
type ReviewFile struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ProductID    int64      `db:"product_id" json:"product_id"`
	UploadedBy   uuid.UUID  `db:"uploaded_by" json:"uploaded_by"`
	TaskID       uuid.UUID  `db:"task_id" json:"task_id"`
	OriginalName string     `db:"original_name" json:"original_name"`
	FileType     FileType   `db:"file_type" json:"file_type"`
	FileSize     int64      `db:"file_size" json:"file_size"`
	S3Bucket     string     `db:"s3_bucket" json:"-"`
	S3Key        string     `db:"s3_key" json:"-"`
	ContentType  string     `db:"content_type" json:"content_type"`
	ReviewColumn string     `db:"review_column" json:"review_column"`
	DateColumn   string     `db:"date_column" json:"date_column"`
	RatingColumn *string    `db:"rating_column" json:"rating_column"`
	Status       FileStatus `db:"status" json:"status"`
	RowsInserted int        `db:"rows_inserted" json:"rows_inserted"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Mapping returns the column mapping recorded with the file.
func (f *ReviewFile) Mapping() ColumnMapping {
	return ColumnMapping{
		ReviewColumn: f.ReviewColumn,
		DateColumn:   f.DateColumn,
		RatingColumn: f.RatingColumn,
	}
}

// ColumnMapping assigns semantic roles to raw column headers.
type ColumnMapping struct {
	ReviewColumn string  `json:"reviewColumn" yaml:"review"`
	DateColumn   string  `json:"dateColumn" yaml:"date"`
	RatingColumn *string `json:"ratingColumn" yaml:"rating,omitempty"`
}

// Complete reports whether both required roles are assigned.
func (m ColumnMapping) Complete() bool {
	return m.ReviewColumn != "" && m.DateColumn != ""
}

// TablePreview is a small sample of a tabular file used for column mapping.
type TablePreview struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// UploadTask is the in-memory state of one server-side ingestion run.
type UploadTask struct {
	ID        uuid.UUID  `json:"task_id"`
	ProductID int64      `json:"product_id"`
	OwnerID   uuid.UUID  `json:"-"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ProgressEvent is the payload written to the progress stream.
type ProgressEvent struct {
	Progress int        `json:"progress"`
	Message  string     `json:"message"`
	Status   TaskStatus `json:"status"`
}

// IngestReport summarizes the outcome of one ingestion task.
type IngestReport struct {
	TaskID       uuid.UUID `json:"task_id"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Files        int       `json:"files"`
	Inserted     int       `json:"inserted"`
	Skipped      int       `json:"skipped"`
	Duplicates   int       `json:"duplicates"`
	FileErrors   []string  `json:"file_errors,omitempty"`
	MeanRating   float64   `json:"mean_rating"`
	MedianRating float64   `json:"median_rating"`
}

package domain

// FileType represents the review file formats accepted for ingestion.
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	FileTypeXLS  FileType = "xls"
)

// Batch admission limits.
const (
	MaxFilesPerBatch       = 5
	MaxFileSizeBytes int64 = 500 * 1024 * 1024
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"csv":  FileTypeCSV,
	"xlsx": FileTypeXLSX,
	"xls":  FileTypeXLS,
}

// AllowedFileTypes maps FileType to the content type used when storing it.
var AllowedFileTypes = map[FileType]string{
	FileTypeCSV:  "text/csv",
	FileTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FileTypeXLS:  "application/vnd.ms-excel",
}

// MIMEFamilies lists the media types a client may legitimately declare for
// each FileType. Browsers on Windows report CSV files as vnd.ms-excel, and
// xlsx is a zip container, so the families overlap on purpose.
var MIMEFamilies = map[FileType][]string{
	FileTypeCSV: {
		"text/csv",
		"text/plain",
		"text/x-csv",
		"text/comma-separated-values",
		"application/csv",
		"application/x-csv",
		"application/vnd.ms-excel",
	},
	FileTypeXLSX: {
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/zip",
		"application/x-zip-compressed",
	},
	FileTypeXLS: {
		"application/vnd.ms-excel",
		"application/msexcel",
		"application/x-msexcel",
		"application/x-ms-excel",
		"application/x-excel",
		"application/x-ole-storage",
	},
}

// GenericMIMETypes carry no information about the content and are treated
// as if no type was declared.
var GenericMIMETypes = map[string]bool{
	"application/octet-stream": true,
	"binary/octet-stream":      true,
}

// FileStatus represents the lifecycle of a stored review file.
type FileStatus string

const (
	FileStatusPending   FileStatus = "pending"
	FileStatusUploaded  FileStatus = "uploaded"
	FileStatusProcessed FileStatus = "processed"
	FileStatusFailed    FileStatus = "failed"
)

// TaskStatus represents the state of a server-side ingestion task as
// reported on the progress stream.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
	TaskStatusExpired    TaskStatus = "expired"
)

// Terminal reports whether no further progress will follow this status.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError || s == TaskStatusExpired
}

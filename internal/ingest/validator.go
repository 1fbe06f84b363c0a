package ingest

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"reviewhub/internal/domain"
)

// Validate decides whether file may join a queue that already holds queued
// files. Rules are checked in order and the first failure is returned.
func Validate(file RawFile, queued int) error {
	if queued >= domain.MaxFilesPerBatch {
		return domain.ErrTooManyFiles
	}
	if file.Size > domain.MaxFileSizeBytes {
		return domain.ErrFileTooLarge
	}
	ft, ok := FileTypeOf(file.Name)
	if !ok {
		return domain.ErrUnsupportedFileType
	}
	if declared := normalizeMIME(file.MIMEType); declared != "" && !InMIMEFamily(ft, declared) {
		return domain.ErrContentMismatch
	}
	return nil
}

// ValidateContent checks the leading bytes of a file against the MIME
// family of its extension. It backs server-side re-validation where the
// client's declared type cannot be trusted.
func ValidateContent(ft domain.FileType, head []byte) error {
	if len(head) == 0 {
		return nil
	}
	detected := normalizeMIME(mimetype.Detect(head).String())
	if detected == "" || InMIMEFamily(ft, detected) {
		return nil
	}
	// Any text is acceptable for CSV; the parser rejects binary content.
	if ft == domain.FileTypeCSV && strings.HasPrefix(detected, "text/") {
		return nil
	}
	return domain.ErrContentMismatch
}

// InMIMEFamily reports whether mediaType is an expected type for ft.
func InMIMEFamily(ft domain.FileType, mediaType string) bool {
	for _, m := range domain.MIMEFamilies[ft] {
		if m == mediaType {
			return true
		}
	}
	return false
}

// normalizeMIME strips parameters and case. Generic binary types carry no
// information and normalize to "".
func normalizeMIME(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(raw, ";", 2)[0]))
	}
	if domain.GenericMIMETypes[mediaType] {
		return ""
	}
	return mediaType
}

// Package ingest implements the client side of review file ingestion:
// admission checks, tabular preview, column mapping, the upload queue and
// batch submission with progress tracking.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"reviewhub/internal/domain"
)

// RawFile is a selected file before it has been mapped. Content is opened
// lazily so large files are never held in memory by the pipeline.
type RawFile struct {
	Name     string
	Size     int64
	MIMEType string
	// Path is set for files read from the local filesystem.
	Path string

	open func() (io.ReadCloser, error)
}

// FromBytes wraps in-memory content as a RawFile.
func FromBytes(name, mimeType string, data []byte) RawFile {
	return RawFile{
		Name:     name,
		Size:     int64(len(data)),
		MIMEType: mimeType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromReader wraps a reader of known size. The reader can be consumed only
// once, so the resulting file supports a single Open.
func FromReader(name, mimeType string, size int64, r io.Reader) RawFile {
	used := false
	return RawFile{
		Name:     name,
		Size:     size,
		MIMEType: mimeType,
		open: func() (io.ReadCloser, error) {
			if used {
				return nil, fmt.Errorf("ingest: %s already consumed", name)
			}
			used = true
			if rc, ok := r.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(r), nil
		},
	}
}

// FromPath stats a local file and sniffs its content type, which becomes
// the declared MIME type checked by Validate.
func FromPath(path string) (RawFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RawFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return RawFile{}, fmt.Errorf("%s is a directory", path)
	}

	declared := ""
	if info.Size() > 0 {
		mt, err := mimetype.DetectFile(path)
		if err != nil {
			return RawFile{}, fmt.Errorf("detecting content type of %s: %w", path, err)
		}
		declared = mt.String()
	}

	return RawFile{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: declared,
		Path:     path,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Open returns a fresh reader over the file content.
func (f RawFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("ingest: %s has no content", f.Name)
	}
	return f.open()
}

// Extension returns the lower-cased last dot-delimited segment of the
// name, or "" when the name has no dot.
func (f RawFile) Extension() string {
	return extensionOf(f.Name)
}

func extensionOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// FileTypeOf resolves a file name to one of the accepted file types.
func FileTypeOf(name string) (domain.FileType, bool) {
	ft, ok := domain.AllowedExtensions[extensionOf(name)]
	return ft, ok
}

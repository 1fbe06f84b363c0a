package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"reviewhub/internal/domain"
)

// PreviewRows is the number of data rows materialized for a preview.
const PreviewRows = 5

// ParseErrorKind distinguishes the ways a file can fail to parse.
type ParseErrorKind string

const (
	KindUnreadable  ParseErrorKind = "unreadable"
	KindEmpty       ParseErrorKind = "empty"
	KindNoHeaders   ParseErrorKind = "no_headers"
	KindParseFailed ParseErrorKind = "parse_failed"
)

var kindSentinels = map[ParseErrorKind]error{
	KindUnreadable:  domain.ErrUnreadableFile,
	KindEmpty:       domain.ErrEmptyFile,
	KindNoHeaders:   domain.ErrNoHeaders,
	KindParseFailed: domain.ErrParseFailed,
}

// ParseError is returned by Parse and ReadTable.
type ParseError struct {
	Kind ParseErrorKind
	File string
	Err  error
}

func (e *ParseError) Error() string {
	sentinel := kindSentinels[e.Kind]
	if e.Err == nil || e.Err == sentinel {
		return fmt.Sprintf("%s: %v", e.File, sentinel)
	}
	return fmt.Sprintf("%s: %v: %v", e.File, sentinel, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{kindSentinels[e.Kind]}
	}
	return []error{kindSentinels[e.Kind], e.Err}
}

func parseErr(kind ParseErrorKind, file string, cause error) *ParseError {
	if cause == nil {
		cause = kindSentinels[kind]
	}
	return &ParseError{Kind: kind, File: file, Err: cause}
}

// Parse reads the header row and up to PreviewRows data rows of file.
func Parse(ctx context.Context, file RawFile) (*domain.TablePreview, error) {
	return readTable(ctx, file, PreviewRows)
}

// ReadTable reads every data row of file. The server uses it to ingest
// stored uploads.
func ReadTable(ctx context.Context, file RawFile) (*domain.TablePreview, error) {
	return readTable(ctx, file, -1)
}

func readTable(ctx context.Context, file RawFile, limit int) (*domain.TablePreview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ft, ok := FileTypeOf(file.Name)
	if !ok {
		return nil, parseErr(KindParseFailed, file.Name, domain.ErrUnsupportedFileType)
	}
	if file.Size == 0 {
		return nil, parseErr(KindEmpty, file.Name, nil)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, parseErr(KindUnreadable, file.Name, err)
	}
	defer rc.Close()

	var (
		headers []string
		rows    [][]string
	)
	switch ft {
	case domain.FileTypeCSV:
		headers, rows, err = readDelimited(ctx, file.Name, rc, limit)
	default:
		headers, rows, err = readWorkbook(ctx, file.Name, rc, limit)
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		log.Printf("ingest.Parse: %s: %v", file.Name, err)
		return nil, parseErr(KindParseFailed, file.Name, err)
	}

	return buildTable(headers, rows), nil
}

// buildTable keys every row by header. Short rows pad with "" and a
// repeated header keeps the value of its last column.
func buildTable(headers []string, rows [][]string) *domain.TablePreview {
	out := &domain.TablePreview{
		Headers: headers,
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, cells := range rows {
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			rec[h] = v
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// limitReached reports whether n rows satisfy limit; a negative limit
// never does.
func limitReached(n, limit int) bool {
	return limit >= 0 && n >= limit
}

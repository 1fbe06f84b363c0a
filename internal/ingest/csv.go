package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const maxLineBytes = 4 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readDelimited reads comma-separated text line by line. Records never
// span lines; blank lines are dropped.
func readDelimited(ctx context.Context, name string, r io.Reader, limit int) ([]string, [][]string, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, nil, parseErr(KindUnreadable, name, err)
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, nil, parseErr(KindUnreadable, name, errors.New("binary content in text file"))
	}
	if bytes.HasPrefix(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		headers []string
		rows    [][]string
		line    int
	)
	for sc.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		text := sc.Text()
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, "�")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := SplitLine(text)
		if headers == nil {
			if allBlank(fields) {
				return nil, nil, parseErr(KindNoHeaders, name, nil)
			}
			headers = fields
			if limitReached(0, limit) {
				break
			}
			continue
		}
		rows = append(rows, fields)
		if limitReached(len(rows), limit) {
			break
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, nil, parseErr(KindParseFailed, name, fmt.Errorf("line %d exceeds %d bytes", line+1, maxLineBytes))
		}
		return nil, nil, parseErr(KindUnreadable, name, err)
	}
	if headers == nil {
		return nil, nil, parseErr(KindEmpty, name, nil)
	}
	return headers, rows, nil
}

// SplitLine splits one comma-separated line. A double quote toggles
// quoting, a doubled quote inside quotes is a literal quote and commas
// inside quotes do not split. Fields are trimmed.
func SplitLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}

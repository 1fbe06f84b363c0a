package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"reviewhub/internal/domain"
)

// WatchProgress reads the server-sent progress stream for a task. The
// token travels as a query parameter as well as a header so the endpoint
// works for clients that cannot set headers.
func (c *Client) WatchProgress(ctx context.Context, productID int64, taskID string, emit func(domain.ProgressEvent)) error {
	path := fmt.Sprintf("/products/%d/reviews/upload/progress/%s", productID, url.PathEscape(taskID))
	if c.token != "" {
		path += "?token=" + url.QueryEscape(c.token)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("opening progress stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrTaskNotFound
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return decodeError(resp.StatusCode, data)
	}

	return readEvents(resp.Body, emit)
}

// readEvents parses a text/event-stream body. Only data fields are used;
// multi-line data is joined with newlines as the format requires.
func readEvents(body io.Reader, emit func(domain.ProgressEvent)) error {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 4096), 1<<20)

	var data []string
	dispatch := func() {
		if len(data) == 0 {
			return
		}
		payload := strings.Join(data, "\n")
		data = data[:0]

		var ev domain.ProgressEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			log.Printf("apiclient.WatchProgress: skipping malformed event %q: %v", payload, err)
			return
		}
		if ev.Status == "" {
			ev.Status = domain.TaskStatusProcessing
		}
		emit(ev)
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			dispatch()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			data = append(data, value)
		}
	}
	dispatch()

	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reading progress stream: %w", err)
	}
	return nil
}

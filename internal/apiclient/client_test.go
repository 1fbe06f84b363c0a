package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/apiclient"
	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

func TestProductIDFrom_Precedence(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int64
	}{
		{"top-level product", `{"message":"ok","product":{"product_id":11,"product_name":"x"}}`, 11},
		{"flat id", `{"product_id":"12"}`, 12},
		{"enveloped product", `{"success":true,"data":{"product":{"product_id":13}}}`, 13},
		{"enveloped flat id", `{"success":true,"data":{"product_id":14}}`, 14},
		{"first match wins", `{"product":{"product_id":15},"product_id":99}`, 15},
		{"skips unusable values", `{"product":{"product_id":null},"product_id":"abc","data":{"product_id":16}}`, 16},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := apiclient.ProductIDFrom([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestProductIDFrom_Missing(t *testing.T) {
	_, err := apiclient.ProductIDFrom([]byte(`{"success":true,"data":{}}`))
	assert.Error(t, err)
}

func TestClient_CreateProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var in ingest.ProductInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Widget", in.Name)
		assert.Equal(t, int64(3), in.CategoryID)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"data":{"message":"created","product":{"product_id":77}}}`)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL+"/api/v1", "tok")
	id, err := c.CreateProduct(context.Background(), ingest.ProductInput{Name: "Widget", CategoryID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"error":{"code":"INVALID_CATEGORY","message":"a valid category is required"}}`)
	}))
	defer srv.Close()

	_, err := apiclient.New(srv.URL, "").CreateProduct(context.Background(), ingest.ProductInput{Name: "x"})
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_CATEGORY", apiErr.Code)
	assert.Equal(t, "a valid category is required", apiErr.Message)
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":{"access_token":"a1","refresh_token":"r1"}}`)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, "")
	tokens, err := c.Login(context.Background(), "me@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "a1", tokens.AccessToken)
}

func TestClient_UploadReviewFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/5/reviews/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var mappings []domain.ColumnMapping
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("mappings")), &mappings))
		require.Len(t, mappings, 2)
		assert.Equal(t, "text", mappings[0].ReviewColumn)
		require.NotNil(t, mappings[1].RatingColumn)
		assert.Equal(t, "stars", *mappings[1].RatingColumn)

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.csv", files[0].Filename)
		assert.Equal(t, "b.csv", files[1].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		content, _ := io.ReadAll(f)
		assert.Equal(t, "text,when\nok,2024-01-01\n", string(content))

		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"success":true,"data":{"task_id":"t-1","file_count":2}}`)
	}))
	defer srv.Close()

	stars := "stars"
	files := []ingest.MappedFile{
		ingest.NewMappedFile(ingest.FromBytes("a.csv", "text/csv", []byte("text,when\nok,2024-01-01\n")),
			domain.ColumnMapping{ReviewColumn: "text", DateColumn: "when"}, nil),
		ingest.NewMappedFile(ingest.FromBytes("b.csv", "", []byte("r,d,stars\n")),
			domain.ColumnMapping{ReviewColumn: "r", DateColumn: "d", RatingColumn: &stars}, nil),
	}
	ticket, err := apiclient.New(srv.URL, "").UploadReviewFiles(context.Background(), 5, files)
	require.NoError(t, err)
	assert.Equal(t, "t-1", ticket.TaskID)
	assert.Equal(t, 2, ticket.FileCount)
}

func TestClient_WatchProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/5/reviews/upload/progress/t-1", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "event:progress\ndata:{\"progress\":5,\"message\":\"starting\",\"status\":\"processing\"}\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"progress\":100,\"message\":\"upload complete\",\"status\":\"completed\"}\n\n")
	}))
	defer srv.Close()

	var got []domain.ProgressEvent
	err := apiclient.New(srv.URL, "tok").WatchProgress(context.Background(), 5, "t-1", func(ev domain.ProgressEvent) {
		got = append(got, ev)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Progress)
	assert.Equal(t, domain.TaskStatusCompleted, got[1].Status)
}

func TestClient_WatchProgress_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	err := apiclient.New(srv.URL, "").WatchProgress(context.Background(), 1, "x", func(domain.ProgressEvent) {})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestClient_SubmitEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"data":{"product":{"product_id":8}}}`)
	})
	mux.HandleFunc("/products/8/reviews/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"error":{"code":"UPLOAD_FAILED","message":"file upload to storage failed"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	files := []ingest.MappedFile{ingest.NewMappedFile(ingest.FromBytes("a.csv", "", []byte("r,d\n")),
		domain.ColumnMapping{ReviewColumn: "r", DateColumn: "d"}, nil)}
	s := ingest.NewSubmitter(apiclient.New(srv.URL, ""), ingest.SubmitterConfig{})
	res, err := s.Submit(context.Background(), ingest.Batch{
		Product: &ingest.ProductInput{Name: "Widget", CategoryID: 1},
		Files:   files,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, ingest.OutcomePartial, res.Outcome)
	assert.True(t, res.ProductCreated)
	assert.Equal(t, int64(8), res.ProductID)
	assert.Contains(t, res.UploadErr.Error(), "file upload to storage failed")
}

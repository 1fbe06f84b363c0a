package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/apiclient"
	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
	"reviewhub/mocks"
)

const shoeReviews = "review_text,date,stars\nGreat grip,2024-03-01,5\nToo narrow,2024-03-02,2\n"

type fakeClient struct {
	*mocks.MockBackend
	tokens     *apiclient.TokenPair
	loginErr   error
	categories []domain.Category
}

func (f *fakeClient) Login(_ context.Context, _, _ string) (*apiclient.TokenPair, error) {
	return f.tokens, f.loginErr
}

func (f *fakeClient) ListCategories(_ context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

func newFakeClient() *fakeClient {
	return &fakeClient{MockBackend: new(mocks.MockBackend)}
}

func resetFlags() {
	apiURL, apiToken = "", ""
	uploadName, uploadBrand, uploadCategory, uploadProductID = "", "", 0, 0
	uploadMaps, uploadManifest, uploadSaveManifest = nil, "", ""
	loginEmail, loginPassword = "", ""
}

func execute(t *testing.T, client Client, args ...string) (string, error) {
	t.Helper()
	orig := newClient
	newClient = func(string, string) Client { return client }
	t.Cleanup(func() {
		newClient = orig
		resetFlags()
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseMapFlag(t *testing.T) {
	file, m, err := parseMapFlag("shoes.csv=review_text:date:stars")
	require.NoError(t, err)
	assert.Equal(t, "shoes.csv", file)
	assert.Equal(t, "review_text", m.ReviewColumn)
	assert.Equal(t, "date", m.DateColumn)
	require.NotNil(t, m.RatingColumn)
	assert.Equal(t, "stars", *m.RatingColumn)

	_, m, err = parseMapFlag("a=b.csv=text:when:")
	require.NoError(t, err)
	assert.Nil(t, m.RatingColumn)

	for _, bad := range []string{"shoes.csv", "=a:b", "shoes.csv=review", "f=a:b:c:d"} {
		_, _, err := parseMapFlag(bad)
		assert.Error(t, err, bad)
	}
}

func TestPreviewCmd_ShowsHeadersAndRows(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)

	out, err := execute(t, newFakeClient(), "preview", path)

	require.NoError(t, err)
	assert.Contains(t, out, "shoes.csv")
	assert.Contains(t, out, "Great grip")
	assert.Contains(t, out, "columns: review_text, date, stars")
	assert.Contains(t, out, "showing 2 of at most 5 preview rows")
}

func TestPreviewCmd_RejectsUnsupportedType(t *testing.T) {
	path := writeFile(t, "notes.txt", shoeReviews)

	_, err := execute(t, newFakeClient(), "preview", path)

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestUploadCmd_Success(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)
	client := newFakeClient()
	client.On("CreateProduct", mock.Anything, ingest.ProductInput{Name: "Trail Shoe", Brand: "Acme", CategoryID: 2}).
		Return(int64(9), nil)
	client.On("UploadReviewFiles", mock.Anything, int64(9), mock.Anything).
		Return(&ingest.UploadTicket{TaskID: "t-1", FileCount: 1}, nil)
	client.On("WatchProgress", mock.Anything, int64(9), "t-1", mock.Anything).
		Run(mocks.EmitProgress(
			domain.ProgressEvent{Progress: 30, Message: "processing shoes.csv", Status: domain.TaskStatusProcessing},
			domain.ProgressEvent{Progress: 100, Message: "upload complete: 2 inserted", Status: domain.TaskStatusCompleted},
		)).
		Return(nil)

	out, err := execute(t, client, "upload", "--name", " Trail Shoe ", "--brand", "Acme", "--category", "2",
		"--map", "shoes.csv=review_text:date:stars", path)

	require.NoError(t, err)
	assert.Contains(t, out, "queued")
	assert.Contains(t, out, "rating=stars")
	assert.Contains(t, out, "[ 30%] processing shoes.csv")
	assert.Contains(t, out, "product 9 created")
	assert.Contains(t, out, "upload complete: 2 inserted")
	client.AssertExpectations(t)
}

func TestUploadCmd_PartialReportsBothFacts(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)
	client := newFakeClient()
	client.On("CreateProduct", mock.Anything, mock.Anything).Return(int64(4), nil)
	client.On("UploadReviewFiles", mock.Anything, int64(4), mock.Anything).
		Return(nil, errors.New("file upload to storage failed"))

	out, err := execute(t, client, "upload", "--name", "Trail Shoe", "--category", "2",
		"--map", "shoes.csv=review_text:date", path)

	require.Error(t, err)
	assert.Equal(t, exitPartial, exitCode(err))
	assert.Contains(t, out, "product 4 created")
	assert.Contains(t, out, "review upload failed")
	assert.Contains(t, out, "add-reviews --product 4")
}

func TestUploadCmd_ProductCreationFails(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)
	client := newFakeClient()
	client.On("CreateProduct", mock.Anything, mock.Anything).
		Return(int64(0), &apiclient.APIError{StatusCode: 400, Code: "INVALID_CATEGORY", Message: "a valid category is required"})

	_, err := execute(t, client, "upload", "--name", "Trail Shoe",
		"--map", "shoes.csv=review_text:date", path)

	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	client.AssertNotCalled(t, "UploadReviewFiles", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadCmd_RequiresMappingPerFile(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)

	_, err := execute(t, newFakeClient(), "upload", "--name", "Trail Shoe", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no --map given")
}

func TestUploadCmd_UnknownColumnRejectedBeforeSubmit(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)
	client := newFakeClient()

	_, err := execute(t, client, "upload", "--name", "Trail Shoe",
		"--map", "shoes.csv=body:date", path)

	assert.ErrorIs(t, err, domain.ErrUnknownColumn)
	client.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestUploadCmd_RequiresName(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)

	_, err := execute(t, newFakeClient(), "upload", "--map", "shoes.csv=review_text:date", path)

	assert.ErrorIs(t, err, domain.ErrProductRequired)
}

func TestUploadCmd_FromManifestAndSaveManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shoes.csv"), []byte(shoeReviews), 0o600))
	manifestPath := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`product:
  name: Trail Shoe
  category_id: 3
files:
  - path: shoes.csv
    review: review_text
    date: date
    rating: stars
`), 0o600))
	savedPath := filepath.Join(dir, "saved.yaml")

	client := newFakeClient()
	client.On("CreateProduct", mock.Anything, ingest.ProductInput{Name: "Trail Shoe", CategoryID: 3}).Return(int64(12), nil)
	client.On("UploadReviewFiles", mock.Anything, int64(12), mock.MatchedBy(func(files []ingest.MappedFile) bool {
		return len(files) == 1 && files[0].Mapping.RatingColumn != nil && *files[0].Mapping.RatingColumn == "stars"
	})).Return(&ingest.UploadTicket{TaskID: "t-2", FileCount: 1}, nil)
	client.On("WatchProgress", mock.Anything, int64(12), "t-2", mock.Anything).
		Run(mocks.EmitProgress(domain.ProgressEvent{Progress: 100, Message: "upload complete", Status: domain.TaskStatusCompleted})).
		Return(nil)

	out, err := execute(t, client, "upload", "--manifest", manifestPath, "--save-manifest", savedPath)

	require.NoError(t, err)
	assert.Contains(t, out, "manifest written to")

	saved, err := ingest.LoadManifest(savedPath)
	require.NoError(t, err)
	require.Len(t, saved.Files, 1)
	assert.Equal(t, "review_text", saved.Files[0].Review)
	assert.Equal(t, "stars", saved.Files[0].Rating)
	require.NotNil(t, saved.Product)
	assert.Equal(t, "Trail Shoe", saved.Product.Name)
}

func TestUploadCmd_ManifestExcludesArgs(t *testing.T) {
	_, err := execute(t, newFakeClient(), "upload", "--manifest", "batch.yaml", "shoes.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "either --manifest")
}

func TestAddReviewsCmd_RequiresProduct(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)

	_, err := execute(t, newFakeClient(), "add-reviews", "--map", "shoes.csv=review_text:date", path)

	assert.ErrorIs(t, err, domain.ErrProductRequired)
}

func TestAddReviewsCmd_UploadsIntoExistingProduct(t *testing.T) {
	path := writeFile(t, "shoes.csv", shoeReviews)
	client := newFakeClient()
	client.On("UploadReviewFiles", mock.Anything, int64(21), mock.Anything).
		Return(&ingest.UploadTicket{TaskID: "t-3", FileCount: 1}, nil)
	client.On("WatchProgress", mock.Anything, int64(21), "t-3", mock.Anything).
		Run(mocks.EmitProgress(domain.ProgressEvent{Progress: 100, Message: "upload complete: 2 inserted", Status: domain.TaskStatusCompleted})).
		Return(nil)

	out, err := execute(t, client, "add-reviews", "--product", "21", "--map", "shoes.csv=review_text:date", path)

	require.NoError(t, err)
	assert.NotContains(t, out, "created")
	assert.Contains(t, out, "upload complete: 2 inserted")
	client.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestLoginCmd_PrintsToken(t *testing.T) {
	client := newFakeClient()
	client.tokens = &apiclient.TokenPair{AccessToken: "access-123"}

	out, err := execute(t, client, "login", "--email", "me@example.com", "--password", "password123")

	require.NoError(t, err)
	assert.Contains(t, out, "signed in as me@example.com")
	assert.Contains(t, out, "REVIEWHUB_CLIENT_TOKEN=access-123")
}

func TestLoginCmd_ReadsPasswordFromInput(t *testing.T) {
	client := newFakeClient()
	client.tokens = &apiclient.TokenPair{AccessToken: "a"}
	rootCmd.SetIn(bytes.NewBufferString("password123\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, client, "login", "--email", "me@example.com")

	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
}

func TestLoginCmd_RequiresEmail(t *testing.T) {
	_, err := execute(t, newFakeClient(), "login")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email")
}

func TestCategoriesCmd_ListsCategories(t *testing.T) {
	client := newFakeClient()
	client.categories = []domain.Category{{ID: 1, Name: "Electronics"}, {ID: 2, Name: "Footwear"}}

	out, err := execute(t, client, "categories")

	require.NoError(t, err)
	assert.Contains(t, out, "Electronics")
	assert.Contains(t, out, "Footwear")
}

func TestWatchInterrupts_SecondSignalCancels(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	defer close(done)
	warned := make(chan struct{}, 1)
	canceled := make(chan struct{})

	go watchInterrupts(sigs, done,
		func() bool { return true },
		func() { warned <- struct{}{} },
		func() { close(canceled) },
	)

	sigs <- os.Interrupt
	select {
	case <-warned:
	case <-time.After(time.Second):
		t.Fatal("first interrupt did not warn")
	}
	select {
	case <-canceled:
		t.Fatal("first interrupt canceled the upload")
	default:
	}

	sigs <- os.Interrupt
	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("second interrupt did not cancel")
	}
}

func TestWatchInterrupts_IdleCancelsImmediately(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	defer close(done)
	canceled := make(chan struct{})

	go watchInterrupts(sigs, done,
		func() bool { return false },
		func() { t.Error("unexpected warning") },
		func() { close(canceled) },
	)

	sigs <- os.Interrupt
	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("interrupt did not cancel")
	}
}

func TestProgressView_PlainOutputSkipsRepeats(t *testing.T) {
	buf := new(bytes.Buffer)
	v := newProgressView(buf)

	v.Update(ingest.Progress{})
	v.Update(ingest.Progress{Percent: 30, Message: "processing"})
	v.Update(ingest.Progress{Percent: 30, Message: "processing"})
	v.Update(ingest.Progress{Percent: 100, Message: "done"})
	v.Done()

	assert.Equal(t, "[  0%] starting\n[ 30%] processing\n[100%] done\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

package ingest_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

func strPtr(s string) *string { return &s }

func TestResolver_MutualExclusivity(t *testing.T) {
	r := ingest.NewResolver(nil)
	require.NoError(t, r.SetReview("X"))
	require.NoError(t, r.SetDate("X"))

	assert.Equal(t, "", r.Get(ingest.RoleReview))
	assert.Equal(t, "X", r.Get(ingest.RoleDate))
}

func TestResolver_RatingStealsFromDate(t *testing.T) {
	r := ingest.NewResolver(nil)
	require.NoError(t, r.SetReview("text"))
	require.NoError(t, r.SetDate("when"))
	require.NoError(t, r.SetRating("when"))

	assert.Equal(t, "", r.Get(ingest.RoleDate))
	_, err := r.Confirm()
	assert.ErrorIs(t, err, domain.ErrMappingRequired)
}

func TestResolver_EmptyUnassigns(t *testing.T) {
	r := ingest.NewResolver(nil)
	require.NoError(t, r.SetReview("text"))
	require.NoError(t, r.SetReview(""))
	assert.Equal(t, "", r.Get(ingest.RoleReview))
}

func TestResolver_ConfirmRequiresReviewAndDate(t *testing.T) {
	r := ingest.NewResolver(nil)
	require.NoError(t, r.SetReview("text"))

	_, err := r.Confirm()
	assert.ErrorIs(t, err, domain.ErrMappingRequired)
	assert.Equal(t, "review and date are required", err.Error())
	assert.Equal(t, "text", r.Get(ingest.RoleReview), "failed confirm keeps state")
}

func TestResolver_ConfirmRatingOptional(t *testing.T) {
	r := ingest.NewResolver(nil)
	require.NoError(t, r.SetReview("text"))
	require.NoError(t, r.SetDate("when"))

	m, err := r.Confirm()
	require.NoError(t, err)
	assert.Equal(t, "text", m.ReviewColumn)
	assert.Equal(t, "when", m.DateColumn)
	assert.Nil(t, m.RatingColumn)
}

func TestResolver_UnknownColumn(t *testing.T) {
	r := ingest.NewResolver([]string{"name", "date"})
	assert.ErrorIs(t, r.SetReview("missing"), domain.ErrUnknownColumn)
	assert.NoError(t, r.SetReview("name"))
}

func TestValidateMapping_SameReviewAndDate(t *testing.T) {
	err := ingest.ValidateMapping(domain.ColumnMapping{ReviewColumn: "a", DateColumn: "a"}, nil)
	assert.ErrorIs(t, err, domain.ErrMappingDuplicate)
	assert.Equal(t, "review and date must be different columns", err.Error())
}

func TestValidateMapping_RatingMustDiffer(t *testing.T) {
	err := ingest.ValidateMapping(domain.ColumnMapping{ReviewColumn: "a", DateColumn: "b", RatingColumn: strPtr("a")}, nil)
	assert.ErrorIs(t, err, domain.ErrMappingDuplicate)
}

func TestValidateMapping_HeadersChecked(t *testing.T) {
	m := domain.ColumnMapping{ReviewColumn: "a", DateColumn: "b", RatingColumn: strPtr("z")}
	assert.ErrorIs(t, ingest.ValidateMapping(m, []string{"a", "b"}), domain.ErrUnknownColumn)
	assert.NoError(t, ingest.ValidateMapping(m, []string{"a", "b", "z"}))
}

func TestNormalizeMapping_BlankRating(t *testing.T) {
	m := ingest.NormalizeMapping(domain.ColumnMapping{ReviewColumn: " a ", DateColumn: "b ", RatingColumn: strPtr("  ")})
	assert.Equal(t, "a", m.ReviewColumn)
	assert.Equal(t, "b", m.DateColumn)
	assert.Nil(t, m.RatingColumn)
}

func TestQueue_AddRemoveList(t *testing.T) {
	q := ingest.NewQueue()
	mapping := domain.ColumnMapping{ReviewColumn: "r", DateColumn: "d"}
	a := ingest.NewMappedFile(ingest.FromBytes("a.csv", "", nil), mapping, nil)
	b := ingest.NewMappedFile(ingest.FromBytes("b.csv", "", nil), mapping, nil)

	require.NoError(t, q.Add(a))
	require.NoError(t, q.Add(b))
	assert.ErrorIs(t, q.Add(a), domain.ErrDuplicateFile)

	list := q.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	q.Remove(uuid.New())
	assert.Equal(t, 2, q.Len())

	q.Remove(a.ID)
	q.Remove(a.ID)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, a.ID, list[0].ID, "earlier List result is a copy")

	q.Clear()
	assert.Equal(t, 0, q.Len())
}

func TestQueue_AllMapped(t *testing.T) {
	q := ingest.NewQueue()
	assert.False(t, q.AllMapped())

	require.NoError(t, q.Add(ingest.NewMappedFile(ingest.FromBytes("a.csv", "", nil),
		domain.ColumnMapping{ReviewColumn: "r", DateColumn: "d"}, nil)))
	assert.True(t, q.AllMapped())

	require.NoError(t, q.Add(ingest.NewMappedFile(ingest.FromBytes("b.csv", "", nil),
		domain.ColumnMapping{ReviewColumn: "r"}, nil)))
	assert.False(t, q.AllMapped())
}

func TestPipeline_EndToEnd(t *testing.T) {
	data := []byte("name,date,score\nGood,2024-01-01,5\nBad,2024-01-02,1")
	file := ingest.FromBytes("scores.csv", "text/csv", data)
	q := ingest.NewQueue()

	require.NoError(t, ingest.Validate(file, q.Len()))

	preview, err := ingest.Parse(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "date", "score"}, preview.Headers)
	assert.Len(t, preview.Rows, 2)

	r := ingest.NewResolver(preview.Headers)
	require.NoError(t, r.SetReview("name"))
	require.NoError(t, r.SetDate("date"))
	require.NoError(t, r.SetRating("score"))
	mapping, err := r.Confirm()
	require.NoError(t, err)
	require.NotNil(t, mapping.RatingColumn)
	assert.Equal(t, "score", *mapping.RatingColumn)

	require.NoError(t, q.Add(ingest.NewMappedFile(file, mapping, preview)))
	assert.True(t, q.AllMapped())
	assert.Equal(t, 1, q.Len())
}

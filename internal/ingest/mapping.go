package ingest

import (
	"fmt"
	"strings"

	"reviewhub/internal/domain"
)

// Role is a semantic meaning a column can be given.
type Role string

const (
	RoleReview Role = "review"
	RoleDate   Role = "date"
	RoleRating Role = "rating"
)

// Resolver collects the column roles for one file. A header holds at most
// one role: assigning it to a role clears it from any other. A Resolver is
// not safe for concurrent use.
type Resolver struct {
	headers map[string]bool
	roles   map[Role]string
}

// NewResolver returns a resolver restricted to the given headers. With no
// headers any column name is accepted.
func NewResolver(headers []string) *Resolver {
	r := &Resolver{roles: make(map[Role]string, 3)}
	if len(headers) > 0 {
		r.headers = make(map[string]bool, len(headers))
		for _, h := range headers {
			r.headers[h] = true
		}
	}
	return r
}

// SetReview assigns the review text role. "" un-assigns it.
func (r *Resolver) SetReview(header string) error { return r.Set(RoleReview, header) }

// SetDate assigns the date role. "" un-assigns it.
func (r *Resolver) SetDate(header string) error { return r.Set(RoleDate, header) }

// SetRating assigns the optional rating role. "" un-assigns it.
func (r *Resolver) SetRating(header string) error { return r.Set(RoleRating, header) }

// Set assigns header to role, clearing the header from any other role.
func (r *Resolver) Set(role Role, header string) error {
	switch role {
	case RoleReview, RoleDate, RoleRating:
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if header == "" {
		delete(r.roles, role)
		return nil
	}
	if r.headers != nil && !r.headers[header] {
		return fmt.Errorf("%q: %w", header, domain.ErrUnknownColumn)
	}
	for other, h := range r.roles {
		if other != role && h == header {
			delete(r.roles, other)
		}
	}
	r.roles[role] = header
	return nil
}

// Get returns the header currently assigned to role.
func (r *Resolver) Get(role Role) string {
	return r.roles[role]
}

// Confirm validates the assignment and returns the finished mapping. The
// resolver is left unchanged so a failed confirmation can be corrected.
func (r *Resolver) Confirm() (domain.ColumnMapping, error) {
	review, date := r.roles[RoleReview], r.roles[RoleDate]
	if review == "" || date == "" {
		return domain.ColumnMapping{}, domain.ErrMappingRequired
	}
	if review == date {
		return domain.ColumnMapping{}, domain.ErrMappingDuplicate
	}

	m := domain.ColumnMapping{ReviewColumn: review, DateColumn: date}
	if rating := strings.TrimSpace(r.roles[RoleRating]); rating != "" {
		m.RatingColumn = &rating
	}
	return m, nil
}

// ValidateMapping checks a mapping built outside a Resolver, such as one
// read from a manifest or received by the server.
func ValidateMapping(m domain.ColumnMapping, headers []string) error {
	if strings.TrimSpace(m.ReviewColumn) == "" || strings.TrimSpace(m.DateColumn) == "" {
		return domain.ErrMappingRequired
	}
	if m.ReviewColumn == m.DateColumn {
		return domain.ErrMappingDuplicate
	}
	if m.RatingColumn != nil && (*m.RatingColumn == m.ReviewColumn || *m.RatingColumn == m.DateColumn) {
		return domain.ErrMappingDuplicate
	}
	if len(headers) == 0 {
		return nil
	}
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for _, col := range []string{m.ReviewColumn, m.DateColumn} {
		if !known[col] {
			return fmt.Errorf("%q: %w", col, domain.ErrUnknownColumn)
		}
	}
	if m.RatingColumn != nil && !known[*m.RatingColumn] {
		return fmt.Errorf("%q: %w", *m.RatingColumn, domain.ErrUnknownColumn)
	}
	return nil
}

// NormalizeMapping trims every column and turns a blank rating into nil.
func NormalizeMapping(m domain.ColumnMapping) domain.ColumnMapping {
	out := domain.ColumnMapping{
		ReviewColumn: strings.TrimSpace(m.ReviewColumn),
		DateColumn:   strings.TrimSpace(m.DateColumn),
	}
	if m.RatingColumn != nil {
		if rating := strings.TrimSpace(*m.RatingColumn); rating != "" {
			out.RatingColumn = &rating
		}
	}
	return out
}

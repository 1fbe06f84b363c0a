package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"reviewhub/internal/domain"
)

// Manifest is the on-disk form of a batch: the product and the queued
// files with their column mappings.
type Manifest struct {
	ProductID int64          `yaml:"product_id,omitempty"`
	Product   *ProductInput  `yaml:"product,omitempty"`
	Files     []ManifestFile `yaml:"files"`
}

// ManifestFile is one queued file in a Manifest.
type ManifestFile struct {
	Path   string `yaml:"path"`
	Review string `yaml:"review"`
	Date   string `yaml:"date"`
	Rating string `yaml:"rating,omitempty"`
}

// Mapping converts the entry to a normalized ColumnMapping.
func (f ManifestFile) Mapping() domain.ColumnMapping {
	m := domain.ColumnMapping{ReviewColumn: f.Review, DateColumn: f.Date}
	if f.Rating != "" {
		rating := f.Rating
		m.RatingColumn = &rating
	}
	return NormalizeMapping(m)
}

// LoadManifest reads a YAML manifest. Relative file paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Files {
		if m.Files[i].Path != "" && !filepath.IsAbs(m.Files[i].Path) {
			m.Files[i].Path = filepath.Join(base, m.Files[i].Path)
		}
	}
	return m, nil
}

// Save writes the manifest as YAML.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ManifestFromQueue captures the queue so it can be restored later. Only
// files that came from the local filesystem can be recorded.
func ManifestFromQueue(q *Queue, productID int64, product *ProductInput) (*Manifest, error) {
	m := &Manifest{ProductID: productID, Product: product}
	for _, f := range q.List() {
		if f.File.Path == "" {
			return nil, fmt.Errorf("%s: file has no local path", f.File.Name)
		}
		entry := ManifestFile{
			Path:   f.File.Path,
			Review: f.Mapping.ReviewColumn,
			Date:   f.Mapping.DateColumn,
		}
		if f.Mapping.RatingColumn != nil {
			entry.Rating = *f.Mapping.RatingColumn
		}
		m.Files = append(m.Files, entry)
	}
	return m, nil
}

// FileSpec is a local file with the column roles to assign to it.
type FileSpec struct {
	Path    string
	Mapping domain.ColumnMapping
}

// BuildQueue admits every file through the full pipeline: validation,
// preview and mapping confirmation. All failing files are reported
// together; the queue is returned only when every file was accepted.
func BuildQueue(ctx context.Context, specs []FileSpec) (*Queue, error) {
	q := NewQueue()
	var result *multierror.Error
	for _, spec := range specs {
		mf, err := admit(ctx, spec, q.Len())
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", spec.Path, err))
			continue
		}
		if err := q.Add(mf); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", spec.Path, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return q, nil
}

// Specs converts the manifest entries to FileSpecs.
func (m *Manifest) Specs() []FileSpec {
	specs := make([]FileSpec, 0, len(m.Files))
	for _, f := range m.Files {
		specs = append(specs, FileSpec{Path: f.Path, Mapping: f.Mapping()})
	}
	return specs
}

func admit(ctx context.Context, spec FileSpec, queued int) (MappedFile, error) {
	raw, err := FromPath(spec.Path)
	if err != nil {
		return MappedFile{}, err
	}
	if err := Validate(raw, queued); err != nil {
		return MappedFile{}, err
	}
	preview, err := Parse(ctx, raw)
	if err != nil {
		return MappedFile{}, err
	}

	r := NewResolver(preview.Headers)
	if err := r.SetReview(spec.Mapping.ReviewColumn); err != nil {
		return MappedFile{}, err
	}
	if err := r.SetDate(spec.Mapping.DateColumn); err != nil {
		return MappedFile{}, err
	}
	if spec.Mapping.RatingColumn != nil {
		if err := r.SetRating(*spec.Mapping.RatingColumn); err != nil {
			return MappedFile{}, err
		}
	}
	mapping, err := r.Confirm()
	if err != nil {
		return MappedFile{}, err
	}
	return NewMappedFile(raw, mapping, preview), nil
}

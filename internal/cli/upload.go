package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

// exitPartial is returned when the product was saved but its reviews were not.
const exitPartial = 2

var (
	uploadName         string
	uploadBrand        string
	uploadCategory     int64
	uploadProductID    int64
	uploadMaps         []string
	uploadManifest     string
	uploadSaveManifest string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [FILE...]",
	Short: "Create a product and upload its review files",
	Long: `Creates a product and uploads up to five review files into it.
Every file needs a column mapping, given either with --map or in a batch
manifest:

  reviewctl upload --name "Trail Shoe" --category 2 \
    --map shoes.csv=review_text:date:stars shoes.csv

  reviewctl upload --manifest batch.yaml`,
	RunE: runUpload,
}

var addReviewsCmd = &cobra.Command{
	Use:   "add-reviews [FILE...]",
	Short: "Upload review files into an existing product",
	RunE:  runAddReviews,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "product name")
	uploadCmd.Flags().StringVar(&uploadBrand, "brand", "", "product brand")
	uploadCmd.Flags().Int64Var(&uploadCategory, "category", 0, "product category id (see 'reviewctl categories')")
	addReviewsCmd.Flags().Int64Var(&uploadProductID, "product", 0, "id of the product to add reviews to")

	for _, c := range []*cobra.Command{uploadCmd, addReviewsCmd} {
		c.Flags().StringArrayVar(&uploadMaps, "map", nil, "column mapping FILE=review:date[:rating], once per file")
		c.Flags().StringVar(&uploadManifest, "manifest", "", "batch manifest YAML with the files and their mappings")
		c.Flags().StringVar(&uploadSaveManifest, "save-manifest", "", "write the validated batch to this manifest before uploading")
		rootCmd.AddCommand(c)
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	specs, manifest, err := collectSpecs(args)
	if err != nil {
		return err
	}

	var product *ingest.ProductInput
	switch {
	case uploadName != "":
		product = &ingest.ProductInput{
			Name:       strings.TrimSpace(uploadName),
			Brand:      strings.TrimSpace(uploadBrand),
			CategoryID: uploadCategory,
		}
	case manifest != nil && manifest.Product != nil:
		product = manifest.Product
	default:
		return fmt.Errorf("--name is required: %w", domain.ErrProductRequired)
	}

	return submitBatch(cmd, ingest.Batch{Product: product}, specs)
}

func runAddReviews(cmd *cobra.Command, args []string) error {
	specs, manifest, err := collectSpecs(args)
	if err != nil {
		return err
	}

	productID := uploadProductID
	if productID == 0 && manifest != nil {
		productID = manifest.ProductID
	}
	if productID <= 0 {
		return fmt.Errorf("--product is required: %w", domain.ErrProductRequired)
	}
	if len(specs) == 0 {
		return domain.ErrNoFiles
	}

	return submitBatch(cmd, ingest.Batch{ProductID: productID}, specs)
}

// collectSpecs resolves the files to upload from either the manifest or
// the FILE arguments with their --map flags.
func collectSpecs(args []string) ([]ingest.FileSpec, *ingest.Manifest, error) {
	if uploadManifest != "" {
		if len(args) > 0 || len(uploadMaps) > 0 {
			return nil, nil, errors.New("use either --manifest or FILE arguments with --map, not both")
		}
		m, err := ingest.LoadManifest(uploadManifest)
		if err != nil {
			return nil, nil, err
		}
		return m.Specs(), m, nil
	}

	mappings := make(map[string]domain.ColumnMapping, len(uploadMaps))
	for _, v := range uploadMaps {
		file, m, err := parseMapFlag(v)
		if err != nil {
			return nil, nil, err
		}
		mappings[file] = m
	}

	specs := make([]ingest.FileSpec, 0, len(args))
	used := make(map[string]bool, len(mappings))
	for _, path := range args {
		key := path
		m, ok := mappings[key]
		if !ok {
			key = filepath.Base(path)
			m, ok = mappings[key]
		}
		if !ok {
			return nil, nil, fmt.Errorf("%s: no --map given for this file", path)
		}
		used[key] = true
		specs = append(specs, ingest.FileSpec{Path: path, Mapping: m})
	}
	for file := range mappings {
		if !used[file] {
			return nil, nil, fmt.Errorf("--map %s does not match any FILE argument", file)
		}
	}
	return specs, nil, nil
}

// parseMapFlag parses FILE=review:date[:rating]. The file part is split at
// the last '=' so names containing '=' still work.
func parseMapFlag(v string) (string, domain.ColumnMapping, error) {
	i := strings.LastIndex(v, "=")
	if i <= 0 {
		return "", domain.ColumnMapping{}, fmt.Errorf("invalid --map %q: expected FILE=review:date[:rating]", v)
	}
	file, roles := v[:i], strings.Split(v[i+1:], ":")
	if len(roles) < 2 || len(roles) > 3 {
		return "", domain.ColumnMapping{}, fmt.Errorf("invalid --map %q: expected FILE=review:date[:rating]", v)
	}

	m := domain.ColumnMapping{ReviewColumn: roles[0], DateColumn: roles[1]}
	if len(roles) == 3 {
		rating := roles[2]
		m.RatingColumn = &rating
	}
	return file, ingest.NormalizeMapping(m), nil
}

func submitBatch(cmd *cobra.Command, batch ingest.Batch, specs []ingest.FileSpec) error {
	ctx := cmd.Context()

	queue, err := ingest.BuildQueue(ctx, specs)
	if err != nil {
		return err
	}
	for _, f := range queue.List() {
		cmd.Printf("%s %s (review=%s, date=%s%s)\n", okStyle.Render("queued"), f.File.Name,
			f.Mapping.ReviewColumn, f.Mapping.DateColumn, ratingSuffix(f.Mapping))
	}

	if uploadSaveManifest != "" {
		m, err := ingest.ManifestFromQueue(queue, batch.ProductID, batch.Product)
		if err != nil {
			return err
		}
		if err := m.Save(uploadSaveManifest); err != nil {
			return err
		}
		cmd.Printf("manifest written to %s\n", uploadSaveManifest)
	}
	batch.Files = queue.List()

	client := newClient(baseURL(), authToken())
	sub := ingest.NewSubmitter(client, ingest.SubmitterConfig{CompletionGrace: clientCfg.CompletionGrace})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := guardInterrupt(cmd, sub, cancel)
	defer stop()

	up, err := sub.Start(ctx, batch)
	if err != nil {
		return err
	}
	view := newProgressView(cmd.OutOrStdout())
	for p := range up.Events() {
		view.Update(p)
	}
	view.Done()

	return report(cmd, up.Wait())
}

func ratingSuffix(m domain.ColumnMapping) string {
	if m.RatingColumn == nil {
		return ""
	}
	return ", rating=" + *m.RatingColumn
}

// report prints the outcome. A partial result states both facts: the
// product exists and its reviews were not ingested.
func report(cmd *cobra.Command, res *ingest.Result) error {
	switch res.Outcome {
	case ingest.OutcomeSuccess:
		if res.ProductCreated {
			cmd.Printf("%s product %d created\n", okStyle.Render("✓"), res.ProductID)
		}
		cmd.Printf("%s %s\n", okStyle.Render("✓"), res.Message)
		return nil
	case ingest.OutcomePartial:
		cmd.Printf("%s product %d created\n", okStyle.Render("✓"), res.ProductID)
		cmd.Printf("%s review upload failed: %v\n", errStyle.Render("✗"), res.UploadErr)
		cmd.Printf("retry with: reviewctl add-reviews --product %d ...\n", res.ProductID)
		return &exitError{code: exitPartial, err: fmt.Errorf("product %d saved without reviews: %w", res.ProductID, res.UploadErr)}
	default:
		if res.ProductID != 0 && res.UploadErr != nil {
			return fmt.Errorf("product %d: %w", res.ProductID, res.UploadErr)
		}
		return res.Err
	}
}

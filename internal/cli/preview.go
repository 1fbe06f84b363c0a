package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reviewhub/internal/ingest"
)

var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Validate a review file and show its first rows",
	Long: `Checks the file type, size and content, then prints the header row
and up to five data rows so the review, date and rating columns can be
chosen for upload.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	raw, err := ingest.FromPath(args[0])
	if err != nil {
		return err
	}
	if err := ingest.Validate(raw, 0); err != nil {
		return fmt.Errorf("%s: %w", raw.Name, err)
	}
	preview, err := ingest.Parse(cmd.Context(), raw)
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render(raw.Name))
	cmd.Println(renderPreview(preview))
	cmd.Printf("columns: %s\n", strings.Join(preview.Headers, ", "))
	cmd.Println(dimStyle.Render(fmt.Sprintf("showing %d of at most %d preview rows", len(preview.Rows), ingest.PreviewRows)))
	return nil
}

// Package cli implements reviewctl, the command line client that previews
// review files, maps their columns and submits them to the ReviewHub API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reviewhub/internal/apiclient"
	"reviewhub/internal/config"
	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

// Client is the part of the API the commands use.
type Client interface {
	ingest.Backend
	Login(ctx context.Context, email, password string) (*apiclient.TokenPair, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

var (
	apiURL   string
	apiToken string

	clientCfg config.ClientConfig

	// newClient builds the API client for a command run.
	newClient = func(baseURL, token string) Client {
		return apiclient.New(baseURL, token)
	}
)

var rootCmd = &cobra.Command{
	Use:   "reviewctl",
	Short: "Upload product review files to ReviewHub",
	Long: `reviewctl validates CSV and Excel review exports, previews them,
maps their columns to review, date and rating, and uploads them to a
ReviewHub server while following ingestion progress.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadClientConfig,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (default from REVIEWHUB_CLIENT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "access token (default from REVIEWHUB_CLIENT_TOKEN)")
}

func loadClientConfig(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	clientCfg = cfg.Client
	return nil
}

func baseURL() string {
	if apiURL != "" {
		return apiURL
	}
	return clientCfg.APIURL
}

func authToken() string {
	if apiToken != "" {
		return apiToken
	}
	return clientCfg.Token
}

// exitError carries a specific process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error: "+err.Error()))
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

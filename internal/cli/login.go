package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and print an access token",
	Long: `Signs in with email and password and prints the access token as an
environment assignment. Add it to .env or export it so later commands
pick it up.`,
	RunE: runLogin,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE:  runCategories,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd, categoriesCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	email := strings.TrimSpace(loginEmail)
	if email == "" {
		return errors.New("--email is required")
	}
	password := loginPassword
	if password == "" {
		cmd.Print("Password: ")
		password = readPassword(cmd.InOrStdin())
		cmd.Println()
	}

	tokens, err := newClient(baseURL(), "").Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	cmd.Println(okStyle.Render("signed in as " + email))
	cmd.Printf("REVIEWHUB_CLIENT_TOKEN=%s\n", tokens.AccessToken)
	return nil
}

func runCategories(cmd *cobra.Command, _ []string) error {
	cats, err := newClient(baseURL(), authToken()).ListCategories(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name})
	}
	cmd.Println(renderTable([]string{"ID", "CATEGORY"}, rows))
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nongsanviet/shopcli/internal/auth"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var flagToken string

type authStatusJSON struct {
	LoggedIn bool   `json:"loggedIn"`
	Source   string `json:"source,omitempty"`
	Token    string `json:"token,omitempty"`
	Path     string `json:"path,omitempty"`
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the bearer token used for backend requests",
	Long: "SHOPCLI_API_TOKEN takes precedence over the token saved by `auth login`.\n" +
		"The saved token lives in the user config directory unless SHOPCLI_TOKEN_FILE is set.",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a bearer token",
	Example: `  shopcli auth login --token eyJhbGciOi...
  echo "$TOKEN" | shopcli auth login`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved bearer token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which token requests will use",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	authLoginCmd.Flags().StringVar(&flagToken, "token", "", "Token to save (read from stdin when omitted)")
}

func requireTokenStore(a *app) (*auth.FileStore, error) {
	if a.tokens == nil {
		return nil, invalidArgsError(
			"no location for the token file",
			"export SHOPCLI_TOKEN_FILE=~/.config/shopcli/token",
		)
	}
	return a.tokens, nil
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	app, err := setupApp(cmd)
	if err != nil {
		return err
	}
	store, err := requireTokenStore(app)
	if err != nil {
		return err
	}

	token := flagToken
	if strings.TrimSpace(token) == "" {
		token, err = readToken(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}
	if err := store.Save(token); err != nil {
		if errors.Is(err, auth.ErrEmptyToken) {
			return invalidArgsError("token is empty", "shopcli auth login --token TOKEN")
		}
		return err
	}
	app.log.Info().Str("path", store.Path()).Msg("token saved")

	return printAuthStatus(cmd, authStatusJSON{
		LoggedIn: true,
		Source:   "file",
		Token:    auth.Mask(strings.TrimSpace(token)),
		Path:     store.Path(),
	})
}

// readToken prompts without echo on a terminal and reads one line otherwise.
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Token: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	app, err := setupApp(cmd)
	if err != nil {
		return err
	}
	store, err := requireTokenStore(app)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	status := authStatusJSON{Path: store.Path()}
	if app.cfg.APIToken != "" {
		status = authStatusJSON{LoggedIn: true, Source: "env", Token: auth.Mask(app.cfg.APIToken)}
	}
	return printAuthStatus(cmd, status)
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	app, err := setupApp(cmd)
	if err != nil {
		return err
	}

	status := authStatusJSON{}
	switch {
	case app.cfg.APIToken != "":
		status = authStatusJSON{LoggedIn: true, Source: "env", Token: auth.Mask(app.cfg.APIToken)}
	case app.tokens != nil:
		saved, err := app.tokens.Load()
		if err != nil {
			return err
		}
		status.Path = app.tokens.Path()
		if saved != "" {
			status.LoggedIn = true
			status.Source = "file"
			status.Token = auth.Mask(saved)
		}
	}
	return printAuthStatus(cmd, status)
}

func printAuthStatus(cmd *cobra.Command, status authStatusJSON) error {
	if flagJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
	}

	out := cmd.OutOrStdout()
	if !status.LoggedIn {
		display.PrintWarning(out, "Chưa đăng nhập")
		if status.Path != "" {
			fmt.Fprintf(out, "token file: %s\n", status.Path)
		}
		return nil
	}
	fmt.Fprintf(out, "Đã đăng nhập (%s) %s\n", status.Source, status.Token)
	if status.Path != "" {
		fmt.Fprintf(out, "token file: %s\n", status.Path)
	}
	return nil
}

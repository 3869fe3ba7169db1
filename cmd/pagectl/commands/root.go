package commands

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mx-space/pagecraft/internal/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	envURL     = "PAGECTL_URL"
	envSession = "PAGECTL_SESSION"
	defaultURL = "http://localhost:2333/api"
)

var (
	apiURL      string
	sessionFile string
	jsonOutput  bool
	verbose     bool
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "pagectl",
	Short: "Edit pagecraft pages from the terminal",
	Long: `pagectl signs in to a pagecraft server and edits its pages, blocks and
site settings. The session is kept in a file so later commands reuse it.

Environment:
  PAGECTL_URL       API base url (default ` + defaultURL + `)
  PAGECTL_SESSION   session file (default <user config dir>/pagecraft/session.json)
  PAGECTL_PASSWORD  password used by "login" when --password is not given`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", "", "API base url (env "+envURL+")")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session", "", "session file (env "+envSession+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and refreshes")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
}

func resolveURL() string {
	if v := strings.TrimSpace(apiURL); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(envURL)); v != "" {
		return v
	}
	return defaultURL
}

func resolveSessionFile() (string, error) {
	if v := strings.TrimSpace(sessionFile); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(envSession)); v != "" {
		return v, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "pagecraft", "session.json"), nil
}

func newClient() (*client.Client, error) {
	path, err := resolveSessionFile()
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		if logger, err = cfg.Build(); err != nil {
			return nil, err
		}
	}
	return client.New(resolveURL(),
		client.WithStore(client.NewFileStore(path)),
		client.WithLogger(logger),
		client.WithHTTPClient(httpClient()),
	)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: timeout}
}

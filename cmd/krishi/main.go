package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/krishisahayak/krishi/internal/adapters/backend"
	"github.com/krishisahayak/krishi/internal/adapters/mapbox"
	"github.com/krishisahayak/krishi/internal/adapters/sqlite"
	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/config"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

var (
	// Global flags
	verbose     bool
	timeout     time.Duration
	sessionPath string
	backendURL  string

	cfg    *config.Config
	logger *slog.Logger
)

var errNotSignedIn = errors.New("not signed in, run `krishi login` first")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "krishi",
	Short: "Krishi Sahayak from the terminal",
	Long: `krishi signs you in to Krishi Sahayak, registers your land from a drawn
polygon and shows the crop insights and orders the backend prepares for it.

Polygons are read as GeoJSON feature collections, the same shape the map's
drawing layer produces.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			loaded, err := config.Load("krishi-cli")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger = logging.New(cmd.ErrOrStderr(), level, "text")
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "Session file (default from KRISHI_LOCAL_SESSION_PATH)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (default from KRISHI_BACKEND_URL)")

	registerAuthCommands()
	registerLandCommands()
	registerOrderCommands()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliEnv is what every command works with: the local session store and a way
// to reach the backend.
type cliEnv struct {
	store    *sqlite.SessionStore
	backends ports.BackendFactory
	out      io.Writer
}

// withEnv opens the session store, runs fn with a deadline and interrupt
// handling, and closes the store again.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *cliEnv) error) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	path := sessionPath
	if path == "" {
		path = cfg.Local.SessionPath
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	url := backendURL
	if url == "" {
		url = cfg.Backend.URL
	}
	env := &cliEnv{
		store:    store,
		backends: backend.Factory(backend.Config{BaseURL: url}),
		out:      cmd.OutOrStdout(),
	}
	return fn(ctx, env)
}

// session returns the stored session or errNotSignedIn.
func (e *cliEnv) session(ctx context.Context) (*domain.AuthSession, error) {
	sess, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.Authenticated() {
		return nil, errNotSignedIn
	}
	if sess.Expired(time.Now()) {
		if err := e.store.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, errNotSignedIn
	}
	return sess, nil
}

// geocoder returns the Mapbox geocoder, or nil when no token is configured.
func geocoder() ports.Geocoder {
	if cfg.Mapbox.Token == "" {
		return nil
	}
	return mapbox.New(cfg.Mapbox.Token, mapbox.WithBaseURL(cfg.Mapbox.GeocodingURL))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe adds what the user can do about an error to its message.
func describe(err error) error {
	var cfgErr *domain.ConfigError
	if errors.As(err, &cfgErr) {
		return fmt.Errorf("%w\n%s", err, cfgErr.Help)
	}
	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) && reqErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w (session rejected, run `krishi login` again)", err)
	}
	return err
}

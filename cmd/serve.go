package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	webview "github.com/webview/webview_go"

	"github.com/kartoza/rockburst/internal/predictor"
	"github.com/kartoza/rockburst/internal/registry"
	"github.com/kartoza/rockburst/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction form and API",
	Long: `Start the HTTP server with the prediction form, the JSON API and /metrics.

The model is loaded once at startup. Unless --headless is given the form is
opened in a desktop window and closing the window stops the server.`,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("port", 8080, "HTTP server port")
	cmd.Flags().Bool("headless", false, "Run in headless mode (no GUI window)")
}

// openRegistry opens the parameter registry and seeds the built-in versions
func openRegistry() (*registry.Store, error) {
	store, err := registry.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDefaults(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// loadPredictor builds the scorer for a registered parameter version
func loadPredictor(store *registry.Store, version string) (predictor.Predictor, error) {
	start := time.Now()
	p, err := store.Predictor(version)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", version, err)
	}

	log.Info().
		Str("version", p.Version()).
		Str("kind", string(p.Kind())).
		Dur("took", time.Since(start)).
		Msg("model loaded")
	return p, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := loadPredictor(store, cfg.ModelVersion)
	if err != nil {
		return err
	}

	// Find an available port (try up to 10 ports starting from the requested one)
	availablePort, err := findAvailablePort(cfg.Port, 10)
	if err != nil {
		return fmt.Errorf("failed to find available port: %w", err)
	}
	if availablePort != cfg.Port {
		log.Warn().Msgf("port %d in use, using port %d instead", cfg.Port, availablePort)
	}
	cfg.Port = availablePort

	log.Info().Msgf("Rockburst v%s starting on port %d", cfg.Version, cfg.Port)
	log.Info().Str("data_dir", cfg.DataDir).Msg("data directory")

	srv, err := server.New(*cfg, p, store)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for server to be ready
	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	waitForServer(serverURL, 10*time.Second)

	if cfg.Headless {
		// Headless mode: wait for signal or error
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-stop:
			log.Info().Msgf("received %v signal, shutting down...", sig)
			if err := srv.Stop(); err != nil {
				log.Error().Err(err).Msg("error during shutdown")
			}
		}
		return nil
	}

	// GUI mode: open embedded WebView window
	log.Info().Msg("opening application window...")
	w := webview.New(false)
	defer w.Destroy()

	w.SetTitle("Rockburst Grade Predictor")
	w.SetSize(1100, 760, webview.HintNone)
	w.Navigate(serverURL)

	// When the webview window closes, shut down the server
	go func() {
		select {
		case err := <-errCh:
			if err != nil {
				log.Error().Err(err).Msg("server error")
			}
		case sig := <-stop:
			log.Info().Msgf("received %v signal, shutting down...", sig)
			w.Terminate()
		}
	}()

	// Run blocks until the window is closed
	w.Run()

	log.Info().Msg("window closed, shutting down server...")
	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	return nil
}

// waitForServer polls until the server is accepting connections
func waitForServer(url string, timeout time.Duration) {
	addr := url[len("http://"):]
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Warn().Msgf("server may not be ready at %s", url)
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}

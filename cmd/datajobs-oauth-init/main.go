// Command datajobs-oauth-init authorizes read-only Google Sheets access for
// the sheets data source and saves the resulting OAuth token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"datajobs/internal/cli"
	"datajobs/internal/log"
	"datajobs/internal/sources/google"

	"golang.org/x/oauth2"
)

const authorizeTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := log.New(log.Config{Level: log.ParseLevel(os.Getenv("LOG_LEVEL")), Output: os.Stderr, Component: "oauth-init"})

	if err := run(logger); err != nil {
		logger.Error("OAuth authorization failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(logger *log.Logger) error {
	clientJSON, err := readClient()
	if err != nil {
		return err
	}
	cfg, err := google.OAuthConfig(clientJSON)
	if err != nil {
		return err
	}

	// The redirect URI must be registered on the OAuth client.
	port := envDefault("OAUTH_REDIRECT_PORT", "8085")
	cfg.RedirectURL = "http://localhost:" + port + "/callback"

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if msg := r.URL.Query().Get("error"); msg != "" {
			http.Error(w, "OAuth error: "+msg, http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization denied: %s", msg)
			return
		}
		fmt.Fprintln(w, "Autorização concluída. Pode fechar esta janela.")
		codeCh <- r.URL.Query().Get("code")
	})
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, authorizeTimeout)
	defer cancel()

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("token exchange: %w", err)
		}
		out := envDefault("GOOGLE_OAUTH_TOKEN_FILE", "token.json")
		if err := google.SaveToken(out, tok); err != nil {
			return err
		}
		logger.Info("OAuth token saved", "path", out)
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.New("authorization timed out")
		}
		return errors.New("interrupted")
	}
}

func readClient() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

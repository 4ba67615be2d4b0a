// Issuesmithd turns free-form requirement documents into GitHub issues.
//
// The daemon serves the HTTP API: GitHub OAuth sign-in, requirement-to-
// issue synthesis via an OpenAI-compatible model, and concurrent bulk
// issue creation under the signed-in user's delegated token.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with environment configuration
//	GITHUB_CLIENT_ID=... GITHUB_CLIENT_SECRET=... \
//	SESSION_SIGNING_KEY=... LLM_API_KEY=... issuesmithd
//
//	# Start with a config file
//	issuesmithd -config /etc/issuesmith/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/issuesmith/internal/committer"
	"github.com/fyrsmithlabs/issuesmith/internal/config"
	httpserver "github.com/fyrsmithlabs/issuesmith/internal/http"
	"github.com/fyrsmithlabs/issuesmith/internal/logging"
	"github.com/fyrsmithlabs/issuesmith/internal/oauthflow"
	"github.com/fyrsmithlabs/issuesmith/internal/session"
	"github.com/fyrsmithlabs/issuesmith/internal/synthesis"
	"github.com/fyrsmithlabs/issuesmith/internal/tracker"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  issuesmithd            Start the issuesmith daemon\n")
			fmt.Fprintf(os.Stderr, "  issuesmithd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("issuesmithd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the issuesmith server and blocks until context cancellation.
//
// Initialization order:
//  1. Load and validate configuration
//  2. Initialize the structured logger
//  3. Build the session manager, auth flow, synthesizer, and committer
//  4. Start the HTTP server
//  5. Graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting issuesmithd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	signingKey := []byte(cfg.Session.SigningKey.Value())

	sessions, err := session.NewManager(signingKey, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("initializing session manager: %w", err)
	}

	flow, err := oauthflow.New(oauthflow.Config{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret.Value(),
		Scopes:       cfg.GitHub.Scopes,
		RedirectURL:  cfg.GitHub.RedirectURL,
	}, signingKey, logger.Named("oauthflow"))
	if err != nil {
		return fmt.Errorf("initializing authorization flow: %w", err)
	}

	synthesizer, err := synthesis.NewService(synthesis.Config{
		APIKey:        cfg.LLM.APIKey.Value(),
		Model:         cfg.LLM.Model,
		BaseURL:       cfg.LLM.BaseURL,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		MaxCandidates: cfg.Synthesis.MaxCandidates,
	}, logger.Named("synthesis"))
	if err != nil {
		return fmt.Errorf("initializing synthesizer: %w", err)
	}

	trackerSvc := tracker.NewService("")
	bulk := committer.NewTrackerCommitter(trackerSvc,
		committer.NewService(cfg.Commit.Concurrency, logger.Named("committer")))

	srv, err := httpserver.NewServer(httpserver.Deps{
		Sessions:     sessions,
		Flow:         flow,
		Synthesizer:  synthesizer,
		Committer:    bulk,
		Repositories: trackerSvc,
	}, logger.Named("http"), &httpserver.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		GitHubClientID:   cfg.GitHub.ClientID,
		CookieName:       cfg.Session.CookieName,
		CookieSecure:     cfg.Session.CookieSecure,
		SessionTTL:       cfg.Session.TTL,
		MaxDocumentBytes: cfg.Synthesis.MaxDocumentBytes,
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

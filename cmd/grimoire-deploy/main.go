// ABOUTME: Entry point for the grimoire-deploy pipeline server
// ABOUTME: Compiles builder graphs and syncs them with the agent runtime

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/grimoire/internal/chat"
	"github.com/2389/grimoire/internal/compile"
	"github.com/2389/grimoire/internal/config"
	"github.com/2389/grimoire/internal/deploy"
	"github.com/2389/grimoire/internal/runtime"
	"github.com/2389/grimoire/internal/server"
	"github.com/2389/grimoire/internal/store"
	"github.com/2389/grimoire/internal/transport"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
             _                 _
  __ _ _ __(_)_ __ ___   ___ (_)_ __ ___
 / _' | '__| | '_ ' _ \ / _ \| | '__/ _ \
| (_| | |  | | | | | | | (_) | | | |  __/
 \__, |_|  |_|_| |_| |_|\___/|_|_|  \___|
 |___/            deploy
`

// getConfigPath returns the path to the deploy config file.
// Priority: GRIMOIRE_CONFIG env var > XDG_CONFIG_HOME/grimoire/deploy.yaml > ~/.config/grimoire/deploy.yaml
func getConfigPath() string {
	if envPath := os.Getenv("GRIMOIRE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "deploy.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "grimoire", "deploy.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: grimoire-deploy <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the deploy pipeline server")
		fmt.Println("  health    Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Runtime: %s\n", cfg.Runtime.BaseURL)
	fmt.Println()

	logger.Info("starting grimoire-deploy",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"runtime", cfg.Runtime.BaseURL,
	)

	userStore, err := store.NewMongoStore(ctx, cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := userStore.Close(shutdownCtx); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	rt := runtime.New(transport.New(cfg.Runtime.BaseURL, logger), logger)
	creds := credentialResolver(cfg)

	deployer := deploy.New(userStore, rt, creds, logger)
	chatter := chat.New(userStore, rt, chat.Config{
		PollAttempts: cfg.Chat.PollAttempts,
		PollInterval: cfg.Chat.PollInterval,
	}, logger)

	mux := http.NewServeMux()
	server.New(deployer, chatter, rt, logger).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// credentialResolver builds the process-wide default credential source.
// Config values (already env-expanded) win; a fully empty config falls
// back to reading the environment directly.
func credentialResolver(cfg *config.Config) compile.CredentialResolver {
	if cfg.Credentials.OpenAIAPIKey == "" && cfg.Credentials.AnthropicAPIKey == "" {
		return compile.EnvResolver{}
	}
	return compile.StaticResolver{
		compile.ProviderOpenAI:    cfg.Credentials.OpenAIAPIKey,
		compile.ProviderAnthropic: cfg.Credentials.AnthropicAPIKey,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

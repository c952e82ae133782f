package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/griffinb3/agvisor/internal/api"
	"github.com/griffinb3/agvisor/internal/config"
	"github.com/griffinb3/agvisor/internal/history"
	"github.com/griffinb3/agvisor/internal/panel"
	"github.com/griffinb3/agvisor/internal/profile"
	"github.com/griffinb3/agvisor/internal/proxy"
	"github.com/griffinb3/agvisor/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the agvisor server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running agvisor server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agvisor system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "agvisor.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "agvisor version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("agvisor is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("agvisor is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pick storage: ephemeral in-memory stores, or SQLite when configured.
	var (
		profiles profile.Store
		hist     history.Store
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("closing storage", "error", err)
			}
		}()
		profiles = store
		hist = store
		slog.Info("using sqlite storage", "data_dir", cfg.Storage.DataDir)
	default:
		profiles = profile.NewMemoryStore()
		hist = history.NewMemoryStore()
		slog.Info("using in-memory storage")
	}

	// Build the advisory panel over the completion client.
	completionClient := proxy.NewClientWithBaseURL(cfg.Completion.APIKey, cfg.Completion.Model, cfg.Completion.BaseURL)
	responder := panel.NewResponder(completionClient, hist)
	advisoryPanel := panel.NewWithBudgets(responder, cfg.Completion.DirectMaxTokens, cfg.Completion.PanelMaxTokens)

	handler := api.NewHandler(api.Deps{
		Panel:    advisoryPanel,
		Profiles: profiles,
		History:  hist,
		Token:    cfg.API.Token,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start MCP server (stdio transport in a goroutine) when enabled.
	if cfg.MCP.Enabled {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Panel:    advisoryPanel,
			Profiles: profiles,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "agvisor listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("agvisor is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop agvisor (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to agvisor (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Model", "%s", cfg.Completion.Model)
	printStatus("Completion API", "%s", cfg.Completion.BaseURL)
	printStatus("Storage", "%s", cfg.Storage.Backend)
	if cfg.Storage.Backend == "sqlite" {
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
	}
	printStatus("MCP", "%s", enabledLabel(cfg.MCP.Enabled))
	return nil
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

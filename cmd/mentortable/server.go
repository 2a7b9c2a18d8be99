package main

import (
	"context"
	"encoding/json"
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/kalambet/mentortable/internal/api"
	"github.com/kalambet/mentortable/internal/config"
	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/metrics"
	"github.com/kalambet/mentortable/internal/storage"
	"github.com/kalambet/mentortable/internal/table"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the mentortable server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpMode, _ := cmd.Flags().GetBool("mcp")
		return runServer(mcpMode)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running mentortable server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mentortable status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "serve the MCP protocol on stdin/stdout instead of HTTP")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "mentortable.pid")
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

// services is everything a server mode needs, built from config.
type services struct {
	table    *table.Service
	store    *storage.Store
	registry *prometheus.Registry
}

func (s *services) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

func buildServices(cfg config.Config) (*services, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNew(reg)

	if cfg.LLM.APIKey == "" {
		slog.Warn("LLM API key is not configured; consultations will fail", "env", "MENTORTABLE_LLM_API_KEY")
	}
	client := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	svc := &services{
		table:    table.New(client, cfg.TableOptions(), m),
		registry: reg,
	}

	if cfg.Storage.Enabled {
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		svc.store = store
	}
	return svc, nil
}

func runServer(mcpMode bool) error {
	fmt.Fprintf(os.Stderr, "mentortable version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if mcpMode {
		return serveMCP(ctx, cfg, svc)
	}
	return serveHTTP(ctx, cfg, svc)
}

func serveMCP(ctx context.Context, cfg config.Config, svc *services) error {
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Table:   svc.table,
		Store:   svc.store,
		Timeout: cfg.RequestTimeout(),
	})
	slog.Info("MCP server started (stdio transport)")
	if err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func serveHTTP(ctx context.Context, cfg config.Config, svc *services) error {
	// Refuse to start twice on the same port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("mentortable is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("mentortable is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	if cfg.Server.APIToken == "" {
		slog.Warn("no API token configured; consultation log routes are unauthenticated")
	}

	handler := api.NewHandler(api.Deps{
		Table:          svc.table,
		Store:          svc.store,
		Token:          cfg.Server.APIToken,
		RequestTimeout: cfg.RequestTimeout(),
		Gatherer:       svc.registry,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr, "model", cfg.LLM.Model, "provider", llm.ProviderName(cfg.LLM.BaseURL), "storage", svc.store != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

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
		printError("mentortable is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop mentortable (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to mentortable (PID %d)", pid)
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

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Model", "%s", cfg.LLM.Model)
	printStatus("Provider", "%s (%s)", llm.ProviderName(cfg.LLM.BaseURL), cfg.LLM.BaseURL)
	if cfg.LLM.APIKey != "" {
		printStatus("API key", "configured")
		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		models, err := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL).ListModels(probeCtx)
		cancel()
		if err != nil {
			printStatus("Upstream", "%s", colorize(colorYellow, "unreachable: "+err.Error()))
		} else {
			printStatus("Upstream", "reachable (%d models)", len(models))
		}
	} else {
		printStatus("API key", "%s", colorize(colorYellow, "missing (set MENTORTABLE_LLM_API_KEY)"))
	}

	if running && cfg.Storage.Enabled {
		consultResp, err := apiGet(client, serverURL+"/consultations?limit=100", cfg.Server.APIToken)
		if err == nil {
			var consultations []json.RawMessage
			if consultResp.StatusCode == http.StatusOK && json.NewDecoder(consultResp.Body).Decode(&consultations) == nil {
				printStatus("Consultations", "%s", countLabel(len(consultations), 100))
			}
			consultResp.Body.Close()
		}
	}

	if cfg.Storage.Enabled {
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
	} else {
		printStatus("Data dir", "storage disabled")
	}
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}

func apiGet(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return client.Do(req)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lumen/features/mcp"
	"lumen/internal/daemon"
	"lumen/internal/middleware"
	"lumen/internal/retrieval"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the MCP server",
		Long: `Start runs the HTTP server exposing the MCP tools (search_ebooks,
list_books, get_book_summary) until interrupted or stopped with
'lumen stop'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pidFile := daemon.NewPIDFile(cfg.PIDPath)
			if pidFile.IsRunning() {
				pid, _ := pidFile.Read()
				return fmt.Errorf("server already running (pid %d)", pid)
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			if err := a.waitForStore(ctx); err != nil {
				return err
			}

			queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
			if err != nil {
				return fmt.Errorf("open query log: %w", err)
			}

			handler := mcp.NewHandler(a.newRetrievalService(queryLogger))

			mux := http.NewServeMux()
			mux.Handle("/mcp", handler)
			mux.HandleFunc("/mcp/sse", handler.HandleSSE)
			mux.HandleFunc("/mcp/messages", handler.HandleMessage)
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, `{"status":"ok"}`)
			})

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
				Handler:           middleware.CorrelationID(mux),
				ReadHeaderTimeout: 10 * time.Second,
			}

			if err := pidFile.Write(); err != nil {
				return err
			}
			defer func() {
				if err := pidFile.Remove(); err != nil {
					slog.Warn("failed to remove PID file", "error", err)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("mcp server listening", "port", cfg.ServerPort)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				slog.Info("shutting down mcp server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
			}
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pidFile := daemon.NewPIDFile(cfg.PIDPath)
			if !pidFile.IsRunning() {
				// Clean up a stale file from a crashed server.
				_ = pidFile.Remove()
				return daemon.ErrNotRunning
			}

			pid, err := pidFile.Read()
			if err != nil {
				return err
			}
			if err := pidFile.Signal(syscall.SIGTERM); err != nil {
				return err
			}

			fmt.Printf("Sent stop signal to server (pid %d)\n", pid)
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"

	"github.com/railguard-ai/railguard/internal/config"
	"github.com/railguard-ai/railguard/internal/realtime"
)

var (
	realtimeListen     string
	realtimeBackend    string
	realtimeGuardrails []string
)

var realtimeCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Proxy realtime sessions with guardrail interception",
	Long: `Realtime accepts websocket connections, bridges each one to the
backend realtime endpoint, and applies the configured guardrails to user
transcripts as they stream through the session.`,
	RunE: runRealtime,
}

func init() {
	realtimeCmd.Flags().StringVar(&realtimeListen, "listen", ":8088", "Address to listen on")
	realtimeCmd.Flags().StringVar(&realtimeBackend, "backend", "", "Backend realtime websocket URL (required)")
	realtimeCmd.Flags().StringSliceVar(&realtimeGuardrails, "guardrails", nil, "Guardrail names to request for every session")
	_ = realtimeCmd.MarkFlagRequired("backend")
}

func runRealtime(cmd *cobra.Command, args []string) error {
	rt, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	server := &http.Server{
		Addr:    realtimeListen,
		Handler: realtimeHandler(ctx, rt, logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("realtime proxy listening",
		"addr", realtimeListen,
		"backend", realtimeBackend)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func realtimeHandler(ctx context.Context, rt *config.Runtime, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientConn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept failed", "error", err)
			return
		}

		// Forward credentials and protocol headers to the backend.
		headers := http.Header{}
		for _, key := range []string{"Authorization", "OpenAI-Beta"} {
			if v := r.Header.Get(key); v != "" {
				headers.Set(key, v)
			}
		}

		sessionCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		backendConn, _, err := websocket.Dial(sessionCtx, realtimeBackend, &websocket.DialOptions{
			HTTPHeader: headers,
		})
		if err != nil {
			logger.Error("backend dial failed", "error", err)
			_ = clientConn.Close(websocket.StatusBadGateway, "backend unavailable")
			return
		}

		session := realtime.NewSession(
			realtime.NewWebsocketConn(clientConn),
			realtime.NewWebsocketConn(backendConn),
			rt.Registry,
			realtime.WithLogger(logger),
			realtime.WithRequestedGuardrails(realtimeGuardrails),
		)

		if err := session.Run(sessionCtx); err != nil {
			logger.Warn("session ended with error", "error", err)
		}
	})
}

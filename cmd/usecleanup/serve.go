package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/usecleanup/pkg/usecleanup"
)

func serveCmd() *cobra.Command {
	var (
		addr  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		Long: `Start the demo server.

Endpoints:
  /ws       WebSocket timer sessions
  /metrics  Prometheus metrics
  /healthz  Liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, debug)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable hook-order validation and debug logging")

	return cmd
}

func runServe(addr string, debug bool) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	usecleanup.DebugMode = debug
	usecleanup.EnableMetrics()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // demo only
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}
		newSession(conn, logger).run(req.Context())
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("demo server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// clientMessage is one render request from the client.
type clientMessage struct {
	IntervalMS int `json:"interval_ms"`
}

// tickMessage is pushed to the client when a scheduled tick fires.
type tickMessage struct {
	Tick       string `json:"tick"`
	IntervalMS int    `json:"interval_ms"`
}

// session is one WebSocket client with its own component scope.
// Every inbound message re-renders the timer component: the cleanup
// slot cancels the previously scheduled tick before a new one is armed,
// and disposing the scope on disconnect cancels the last one.
type session struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	owner   *usecleanup.Owner
	writeMu sync.Mutex
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *session {
	owner := usecleanup.NewOwner(nil)
	return &session{
		conn:   conn,
		logger: logger.With("session_id", owner.ID()),
		owner:  owner,
	}
}

// run reads render requests until the connection closes, then disposes
// the session's scope so the pending cleanup fires.
func (s *session) run(ctx context.Context) {
	defer s.owner.Dispose()
	defer s.conn.Close()

	s.logger.Info("session started")

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			s.logger.Info("session closed")
			return
		}

		if msg.IntervalMS <= 0 {
			msg.IntervalMS = 1000
		}
		s.render(ctx, time.Duration(msg.IntervalMS)*time.Millisecond)
	}
}

// render is one host scheduler turn: build (or reuse) the timer
// callback for the requested interval, then invoke it. Invoking cancels
// the previous pending tick (CleanUpOnCall) and schedules the next one.
func (s *session) render(ctx context.Context, interval time.Duration) {
	usecleanup.WithOwner(s.owner, func() {
		s.owner.StartRender()
		cb := usecleanup.NewCleanupCallback(func(d time.Duration) usecleanup.Result[struct{}] {
			timer := time.AfterFunc(d, func() { s.sendTick(d) })
			return usecleanup.Release[struct{}](func() { timer.Stop() })
		}, usecleanup.Deps{interval})
		s.owner.EndRender()

		invoke := usecleanup.Instrument(cb, "usecleanup-demo")
		invoke(ctx, interval)
	})

	s.logger.Debug("scheduled tick", "interval", interval)
}

// sendTick pushes a tick frame to the client.
func (s *session) sendTick(interval time.Duration) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	msg := tickMessage{
		Tick:       time.Now().UTC().Format(time.RFC3339Nano),
		IntervalMS: int(interval / time.Millisecond),
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Error("write error", "error", err)
	}
}

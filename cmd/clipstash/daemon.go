package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/soheilhy/cmux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/monitor"
	"go.klb.dev/clipstash/internal/persist"
	"go.klb.dev/clipstash/internal/rpc"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Watch the clipboard and serve the history",
		Long: `Starts the clipstash daemon. It polls the system clipboard, records every
change into the history database and serves the history on a local socket
(gRPC for the clipstash CLI, HTTP/JSON under /v1/ for everything else).

Config file search order:
  /etc/clipstash/clipstash.toml
  $HOME/.config/clipstash/clipstash.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPSTASH_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("db", defaultDBPath(), "history database path")
	f.Int("capacity", history.DefaultCapacity, "maximum number of unpinned items")
	f.Duration("poll-interval", monitor.DefaultInterval, "clipboard polling interval")
	f.Duration("write-timeout", engine.DefaultWriteTimeout, "timeout for each database write")
	f.Bool("paused", false, "start with clipboard monitoring stopped")
	addSocketFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := v.GetString("db")
	p, closeDB := openPersister(dbPath)
	defer closeDB()

	store := history.New(p, history.WithCapacity(v.GetInt("capacity")))

	pb := clip.New()
	defer pb.Close()

	opts := []engine.Option{
		engine.WithInterval(v.GetDuration("poll-interval")),
		engine.WithWriteTimeout(v.GetDuration("write-timeout")),
	}
	if v.GetBool("paused") {
		opts = append(opts, engine.WithoutMonitoring())
	}
	e := engine.New(store, pb, opts...)

	sock := ipc.SocketPath(v.GetString("socket"))
	ln, err := ipc.Listen(sock)
	if err != nil {
		return fmt.Errorf("ipc listen: %w", err)
	}

	svc := rpc.New(e)
	gw, err := rpc.NewGateway(svc)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("gateway: %w", err)
	}
	gs := grpc.NewServer(grpc.ForceServerCodec(rpc.Codec))
	rpc.Register(gs, svc)

	// One socket, two protocols: gRPC from the CLI, HTTP/JSON from scripts.
	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	go func() {
		if err := gs.Serve(grpcL); err != nil && !errors.Is(err, cmux.ErrListenerClosed) {
			slog.Warn("grpc server stopped", "err", err)
		}
	}()
	go func() {
		if err := serveHTTPGateway(ctx, httpL, gw); err != nil && !errors.Is(err, cmux.ErrListenerClosed) {
			slog.Warn("http gateway stopped", "err", err)
		}
	}()
	go func() {
		if err := m.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("ipc mux stopped", "err", err)
		}
	}()

	slog.Info("clipstash daemon starting",
		"version", Version,
		"db", dbPath,
		"socket", sock,
		"clipboard", pb.Name(),
	)

	err = e.Run(ctx)
	gs.Stop()
	m.Close()
	slog.Info("clipstash daemon stopped")
	return err
}

// openPersister opens the history database at path. A corrupt file is moved
// aside and replaced; if the database still cannot be opened the history is
// kept in memory only and the returned Persister is nil.
func openPersister(path string) (history.Persister, func()) {
	db, _, err := persist.OpenOrRecover(path, persist.WithMkdirAll())
	if err != nil {
		slog.Error("history database unavailable, keeping history in memory only",
			"db", path, "err", err)
		return nil, func() {}
	}
	return persist.New(db), func() { _ = db.Close() }
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/rpc"
)

// rpcTimeout bounds every unary CLI call.
const rpcTimeout = 5 * time.Second

// dialDaemon returns a client for the daemon listening on the configured
// socket. No auth: the socket is local and owner-restricted.
func dialDaemon(v *viper.Viper) (*rpc.Client, error) {
	sock := ipc.SocketPath(v.GetString("socket"))
	if !ipc.IsRunning(sock) {
		return nil, fmt.Errorf("no clipstash daemon listening on %s (start one with \"clipstash daemon\")", sock)
	}
	return rpc.Dial(ipc.Target(sock))
}

// withDaemon dials the daemon, runs fn with a bounded context and closes the
// connection.
func withDaemon(v *viper.Viper, fn func(ctx context.Context, c *rpc.Client) error) error {
	c, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	return fn(ctx, c)
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return t.Format("15:04:05")
	}
	return t.Format("2006-01-02")
}

// oneLine flattens s and truncates it to max runes for tabular output. A max
// below 1 disables truncation.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if max < 1 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

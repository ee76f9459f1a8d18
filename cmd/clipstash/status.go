package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/rpc"
)

func newStatusCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
	}, runStatus)

	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, v *viper.Viper, _ []string) error {
	return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
		st, err := c.Status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if v.GetBool("json") {
			return printJSON(cmd.OutOrStdout(), st)
		}
		printStatus(cmd.OutOrStdout(), st, ipc.SocketPath(v.GetString("socket")))
		return nil
	})
}

func printStatus(w io.Writer, st *rpc.StatusResponse, socket string) {
	monitoring := "stopped"
	if st.Monitoring {
		monitoring = fmt.Sprintf("every %s", st.Interval)
	}

	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Socket:\t%s\n", socket)
	fmt.Fprintf(tw, "Clipboard:\t%s\n", st.Backend)
	fmt.Fprintf(tw, "Monitoring:\t%s\n", monitoring)
	fmt.Fprintf(tw, "Started:\t%s (%s)\n", st.StartedAt.Local().Format(time.DateTime), fmtAge(st.StartedAt))
	fmt.Fprintf(tw, "Items:\t%d (%d pinned, capacity %d unpinned)\n", st.Items, st.Pinned, st.Capacity)
	fmt.Fprintf(tw, "Tags:\t%d\n", st.Tags)
	fmt.Fprintf(tw, "Recorded:\t%d since start, last %s\n", st.Recorded, fmtAge(st.LastChange))
	if st.WriteFailures > 0 {
		fmt.Fprintf(tw, "Write failures:\t%d\n", st.WriteFailures)
	}
	_ = tw.Flush()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newWatchCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "watch",
		Short: "Print history change events as they happen",
		Long: `Streams events from the daemon until interrupted:

  items_changed   an item was recorded, evicted, pinned, tagged or cleared
  tags_changed    the set of tags in use changed`,
		Args: cobra.NoArgs,
	}, runWatch)

	cmd.Flags().Bool("json", false, "output one JSON object per event")
	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper, _ []string) error {
	c, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stream, err := c.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	out := cmd.OutOrStdout()
	jsonOut := v.GetBool("json")
	for {
		ev, err := stream.Recv()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), status.Code(err) == codes.Canceled, errors.Is(ctx.Err(), context.Canceled):
			return nil
		default:
			return fmt.Errorf("watch: %w", err)
		}
		if jsonOut {
			if err := printJSON(out, ev); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", ev.Time.Local().Format(time.TimeOnly), ev.Event)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/rpc"
)

// clientCmd builds a command that talks to the daemon. Every client command
// shares the --socket and --config flags.
func clientCmd(cmd *cobra.Command, run func(cmd *cobra.Command, v *viper.Viper, args []string) error) *cobra.Command {
	v := viper.New()
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) }
	cmd.RunE = func(cmd *cobra.Command, args []string) error { return run(cmd, v, args) }
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List history items, pinned first then newest first",
		Args:    cobra.NoArgs,
	}, runList)

	f := cmd.Flags()
	f.StringP("search", "q", "", "case-insensitive substring to match against the preview")
	f.StringSliceP("tag", "t", nil, "only items carrying at least one of the given tags")
	f.IntP("limit", "n", 0, "maximum number of items (0 = all)")
	f.Bool("json", false, "output raw JSON")
	return cmd
}

func runList(cmd *cobra.Command, v *viper.Viper, _ []string) error {
	return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
		resp, err := c.List(ctx, &rpc.ListRequest{
			Search: v.GetString("search"),
			Tags:   v.GetStringSlice("tag"),
			Limit:  v.GetInt("limit"),
		})
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		out := cmd.OutOrStdout()
		if v.GetBool("json") {
			return printJSON(out, resp.Items)
		}
		printItems(out, resp.Items)
		return nil
	})
}

func printItems(w io.Writer, items []rpc.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "History is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tID\tKIND\tCOPIED\tTAGS\tPREVIEW\n")
	for _, it := range items {
		marker := ""
		if it.Pinned {
			marker = "*"
		}
		tags := "-"
		if len(it.Tags) > 0 {
			tags = strings.Join(it.Tags, ",")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, it.ID, it.Kind, fmtAge(it.Timestamp), tags, oneLine(it.Summary, 60),
		)
	}
	_ = tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAddCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "add [text...]",
		Short: "Record text, an image or a file reference without touching the clipboard",
		Long: `Adds an item to the history. The text is taken from the arguments, or read
from stdin when there are none. Use --image to record an image file and --file
to record a reference to a file path.`,
	}, runAdd)

	f := cmd.Flags()
	f.String("image", "", "record the image stored at this path")
	f.String("file", "", "record a reference to this path")
	cmd.MarkFlagsMutuallyExclusive("image", "file")
	return cmd
}

func runAdd(cmd *cobra.Command, v *viper.Viper, args []string) error {
	req, err := addRequest(cmd.InOrStdin(), v.GetString("image"), v.GetString("file"), args)
	if err != nil {
		return err
	}
	return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
		resp, err := c.Record(ctx, req)
		if err != nil {
			return fmt.Errorf("add: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Item.ID)
		return nil
	})
}

func addRequest(stdin io.Reader, imagePath, filePath string, args []string) (*rpc.RecordRequest, error) {
	switch {
	case imagePath != "":
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return &rpc.RecordRequest{Kind: content.KindImage, Data: data}, nil
	case filePath != "":
		return &rpc.RecordRequest{Kind: content.KindFile, Data: []byte(filePath)}, nil
	case len(args) > 0:
		return &rpc.RecordRequest{Kind: content.KindText, Data: []byte(strings.Join(args, " "))}, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("nothing to add: stdin is empty")
	}
	return &rpc.RecordRequest{Kind: content.KindText, Data: data}, nil
}

func newCopyCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a history item back to the clipboard",
		Long: `Writes the item back to the system clipboard. The write is not recorded as
a new history item. With --stdout the content is printed instead.`,
		Args: cobra.ExactArgs(1),
	}, runCopy)

	cmd.Flags().Bool("stdout", false, "print the item content instead of copying it")
	return cmd
}

func runCopy(cmd *cobra.Command, v *viper.Viper, args []string) error {
	id := args[0]
	return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
		if !v.GetBool("stdout") {
			if err := c.CopyOut(ctx, id); err != nil {
				return fmt.Errorf("copy: %w", err)
			}
			return nil
		}
		resp, err := c.List(ctx, &rpc.ListRequest{IncludeData: true})
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		for _, it := range resp.Items {
			if it.ID == id {
				_, err := cmd.OutOrStdout().Write(it.Data)
				return err
			}
		}
		return fmt.Errorf("no item %s", id)
	})
}

func newPinCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:   "pin <id>...",
		Short: "Toggle the pin flag of history items",
		Long: `Pinned items are listed first and are never evicted when the history is
full. Running pin on a pinned item unpins it.`,
		Args: cobra.MinimumNArgs(1),
	}, func(_ *cobra.Command, v *viper.Viper, args []string) error {
		return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
			for _, id := range args {
				if err := c.TogglePin(ctx, id); err != nil {
					return fmt.Errorf("pin %s: %w", id, err)
				}
			}
			return nil
		})
	})
}

func newTagCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:   "tag <id> <tag>...",
		Short: "Add tags to a history item",
		Args:  cobra.MinimumNArgs(2),
	}, func(_ *cobra.Command, v *viper.Viper, args []string) error {
		return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
			for _, tag := range args[1:] {
				if err := c.AddTag(ctx, args[0], tag); err != nil {
					return fmt.Errorf("tag %q: %w", tag, err)
				}
			}
			return nil
		})
	})
}

func newUntagCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:   "untag <id> <tag>...",
		Short: "Remove tags from a history item",
		Args:  cobra.MinimumNArgs(2),
	}, func(_ *cobra.Command, v *viper.Viper, args []string) error {
		return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
			for _, tag := range args[1:] {
				if err := c.RemoveTag(ctx, args[0], tag); err != nil {
					return fmt.Errorf("untag %q: %w", tag, err)
				}
			}
			return nil
		})
	})
}

func newTagsCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:   "tags",
		Short: "List the tags in use",
		Args:  cobra.NoArgs,
	}, func(cmd *cobra.Command, v *viper.Viper, _ []string) error {
		return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
			tags, err := c.Tags(ctx)
			if err != nil {
				return fmt.Errorf("tags: %w", err)
			}
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		})
	})
}

func newClearCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "clear",
		Short: "Delete every history item, pinned items included",
		Args:  cobra.NoArgs,
	}, func(_ *cobra.Command, v *viper.Viper, _ []string) error {
		if !v.GetBool("force") {
			return errors.New("clear deletes pinned items too; pass --force to confirm")
		}
		return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
			if err := c.Clear(ctx); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			return nil
		})
	})
	cmd.Flags().BoolP("force", "f", false, "confirm deleting the whole history")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/moqwire/pkg/capture"
	"github.com/vango-dev/moqwire/pkg/protocol"
)

func captureCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Manage stored captures",
		Long: `Store, list, fetch and replay control stream captures.

Captures live in the directory or S3 bucket configured under
"capture" in moqwire.json.

Examples:
  moqwire capture put session-1 capture.moq
  moqwire capture list
  moqwire capture replay session-1`,
	}

	open := func() (capture.Store, error) {
		cfg, err := g.loadConfig()
		if err != nil {
			return nil, err
		}
		return captureStore(cfg)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored captures",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := open()
				if err != nil {
					return err
				}
				list, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSIZE\tMODIFIED")
				for _, c := range list {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", c.ID, c.Size, c.ModTime.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			},
		},
		capturePutCmd(open),
		&cobra.Command{
			Use:   "get <id>",
			Short: "Write a capture to standard output",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := open()
				if err != nil {
					return err
				}
				rc, err := store.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				defer rc.Close()
				_, err = io.Copy(cmd.OutOrStdout(), rc)
				return err
			},
		},
		captureReplayCmd(open),
	)

	return cmd
}

func capturePutCmd(open func() (capture.Store, error)) *cobra.Command {
	var hexText bool

	cmd := &cobra.Command{
		Use:   "put [id] [file]",
		Short: "Store a capture",
		Long: `Store a capture read from a file or standard input. Without an
ID a random one is generated.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := capture.NewID()
			if len(args) > 0 {
				id = args[0]
				args = args[1:]
			}
			store, err := open()
			if err != nil {
				return err
			}
			in, err := openInput(cmd, args, hexText)
			if err != nil {
				return err
			}
			defer in.Close()

			saved, err := store.Save(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Stored %s (%d bytes)", saved.ID, saved.Size)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&hexText, "hex", "x", false, "Input is hex text")

	return cmd
}

func captureReplayCmd(open func() (capture.Store, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "replay <id>",
		Short: "Decode a stored control stream capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			p := &printer{w: cmd.OutOrStdout(), json: asJSON}
			return capture.Replay(cmd.Context(), store, args[0], func(m protocol.Message) error {
				return p.message(m)
			})
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Print JSON envelopes instead of summaries")

	return cmd
}

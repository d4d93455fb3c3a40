package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	errs "github.com/vango-dev/moqwire/internal/errors"
	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

type probeOptions struct {
	role    string
	path    string
	send    string
	timeout time.Duration
	json    bool
}

func probeCmd() *cobra.Command {
	opts := probeOptions{}

	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Open a control stream over WebSocket and print the replies",
		Long: `Connect to a WebSocket endpoint that speaks the MoQ control stream,
such as 'moqwire serve' at /v1/ws.

The probe sends a client setup offering every supported version, then
the envelopes in --send, then goaway. Every message the peer sends
back is printed until it closes the connection.

Examples:
  moqwire probe ws://localhost:8080/v1/ws
  moqwire probe --send=subscribe.json --json ws://localhost:8080/v1/ws`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.role, "role", "subscriber", "Setup role: publisher, subscriber or pubsub")
	cmd.Flags().StringVar(&opts.path, "path", "", "Setup path parameter")
	cmd.Flags().StringVar(&opts.send, "send", "", "File of JSON envelopes to send after setup")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Give up after this long")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Print JSON envelopes instead of summaries")

	return cmd
}

func parseRole(s string) (protocol.Role, error) {
	for _, r := range []protocol.Role{protocol.RolePublisher, protocol.RoleSubscriber, protocol.RolePubSub} {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, errs.Newf(errs.CategoryCLI, "unknown role %q", s).
		WithSuggestion("Use publisher, subscriber or pubsub")
}

// probeMessages builds the bytes sent after the client setup.
func probeMessages(sendFile string) ([]byte, error) {
	var out []byte
	if sendFile != "" {
		f, err := os.Open(sendFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if out, err = encodeEnvelopes(f); err != nil {
			return nil, err
		}
	}
	return protocol.Append(out, &protocol.Goaway{})
}

func runProbe(cmd *cobra.Command, url string, opts probeOptions) error {
	role, err := parseRole(opts.role)
	if err != nil {
		return err
	}
	setup := &protocol.ClientSetup{
		Versions: []uint32{protocol.VersionDraft06, protocol.VersionDraft05},
		Params:   protocol.SetupParameters{Role: role},
	}
	if opts.path != "" {
		setup.Params.Path = []byte(opts.path)
	}
	rest, err := probeMessages(opts.send)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	stream := transport.NewWebSocketStream(conn)
	defer stream.Close()

	// Unblock the reader when the deadline passes.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	w := transport.NewWriter(stream)
	if err := w.WriteMessage(setup); err != nil {
		return err
	}
	if _, err := stream.Write(rest); err != nil {
		return err
	}

	p := &printer{w: cmd.OutOrStdout(), json: opts.json}
	r := transport.NewReader(stream)
	for {
		m, err := r.ReadMessage(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return fmt.Errorf("probe %s: %w", url, ctx.Err())
		case err != nil:
			return errs.FromDecode(err, -1)
		}
		if err := p.message(m); err != nil {
			return err
		}
	}
}


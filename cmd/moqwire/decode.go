package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	errs "github.com/vango-dev/moqwire/internal/errors"
	"github.com/vango-dev/moqwire/pkg/inspect"
	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/server"
	"github.com/vango-dev/moqwire/pkg/transport"
)

type decodeOptions struct {
	kind       string
	hex        bool
	json       bool
	report     bool
	maxPayload int
	maxMessage int
}

func decodeCmd() *cobra.Command {
	opts := decodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a control stream, data stream or datagram",
		Long: `Decode wire bytes from a file or standard input.

Each decoded item is printed on its own line, as a summary or with
--json as an envelope. Decoding stops at the first malformed item and
reports its offset.

With --report the input is decoded in one pass and printed as a
single JSON document that also gives the number of bytes still
needed when the input ends inside an item.

Examples:
  moqwire decode capture.moq
  moqwire decode --kind=data --json stream.bin
  echo "0a 07 10 00" | moqwire decode --hex`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", server.KindControl, "Input kind: control, data or datagram")
	cmd.Flags().BoolVarP(&opts.hex, "hex", "x", false, "Input is hex text")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Print JSON envelopes instead of summaries")
	cmd.Flags().BoolVar(&opts.report, "report", false, "Print one JSON report for the whole input")
	cmd.Flags().IntVar(&opts.maxPayload, "max-payload", 64, "Payload bytes to show per object")
	cmd.Flags().IntVar(&opts.maxMessage, "max-message-size", transport.DefaultMaxMessageSize, "Largest control message to accept")

	return cmd
}

func runDecode(cmd *cobra.Command, args []string, opts decodeOptions) error {
	switch opts.kind {
	case server.KindControl, server.KindData, server.KindDatagram:
	default:
		return errs.New("E401").WithDetail(fmt.Sprintf("Got %q; use control, data or datagram.", opts.kind))
	}

	if opts.report || opts.kind == server.KindDatagram {
		b, err := readInput(cmd, args, opts.hex)
		if err != nil {
			return err
		}
		return decodeBuffered(cmd, b, opts)
	}

	in, err := openInput(cmd, args, opts.hex)
	if err != nil {
		return err
	}
	defer in.Close()

	// The offset of the item that failed is the sum of what parsed before it.
	offset := 0
	counter := transport.ObserverFunc(func(_ context.Context, ev transport.ParseEvent) {
		if ev.Err == nil {
			offset += ev.Bytes
		}
	})
	topts := []transport.Option{
		transport.WithObserver(counter),
		transport.WithMaxMessageSize(opts.maxMessage),
	}

	p := &printer{w: cmd.OutOrStdout(), json: opts.json, maxPayload: opts.maxPayload}
	if opts.kind == server.KindData {
		err = decodeDataStream(cmd.Context(), in, p, topts)
	} else {
		err = decodeControlStream(cmd.Context(), in, p, topts)
	}
	if err != nil {
		return errs.FromDecode(err, offset)
	}
	return nil
}

func decodeControlStream(ctx context.Context, in io.Reader, p *printer, opts []transport.Option) error {
	r := transport.NewReader(in, opts...)
	for {
		m, err := r.ReadMessage(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.message(m); err != nil {
			return err
		}
	}
}

func decodeDataStream(ctx context.Context, in io.Reader, p *printer, opts []transport.Option) error {
	r := transport.NewDataStreamReader(in, opts...)
	h, err := r.Header(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := p.frame(h); err != nil {
		return err
	}
	for {
		obj, err := r.ReadObject(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.object(&obj); err != nil {
			return err
		}
	}
}

// decodeBuffered decodes the whole input at once.
func decodeBuffered(cmd *cobra.Command, b []byte, opts decodeOptions) error {
	var rep *inspect.Report
	switch opts.kind {
	case server.KindData:
		rep = inspect.DecodeData(cmd.Context(), b, nil, opts.maxPayload)
	case server.KindDatagram:
		rep = inspect.DecodeDatagram(cmd.Context(), b, nil, opts.maxPayload)
	default:
		rep = inspect.DecodeControl(cmd.Context(), b, nil)
	}

	out := cmd.OutOrStdout()
	if opts.report {
		if err := printJSON(out, rep); err != nil {
			return err
		}
	} else {
		p := &printer{w: out, json: opts.json, maxPayload: opts.maxPayload}
		for _, env := range rep.Items {
			if err := p.envelope(env); err != nil {
				return err
			}
		}
	}

	switch {
	case rep.Err != nil:
		return errs.FromDecode(rep.Err, rep.Consumed)
	case rep.Needed > 0:
		return errs.FromDecode(&protocol.IncompleteError{Needed: rep.Needed}, rep.Consumed)
	}
	return nil
}

// printer writes decoded items as summaries or envelopes.
type printer struct {
	w          io.Writer
	json       bool
	maxPayload int
}

func (p *printer) message(m protocol.Message) error {
	if !p.json {
		_, err := fmt.Fprintln(p.w, inspect.Summary(m))
		return err
	}
	env, err := inspect.Describe(m)
	if err != nil {
		return err
	}
	return printJSON(p.w, env)
}

func (p *printer) frame(f protocol.StreamFrame) error {
	if !p.json {
		_, err := fmt.Fprintln(p.w, inspect.Summary(f))
		return err
	}
	env, err := inspect.DescribeStream(f)
	if err != nil {
		return err
	}
	return printJSON(p.w, env)
}

func (p *printer) object(obj *transport.Object) error {
	env, err := inspect.DescribeObject(obj, p.maxPayload)
	if err != nil {
		return err
	}
	return p.envelope(env)
}

// envelope prints an already described item. Summaries of messages and
// frames are rebuilt from the envelope.
func (p *printer) envelope(env *inspect.Envelope) error {
	if p.json {
		return printJSON(p.w, env)
	}
	if env.Type == inspect.TypeObject {
		_, err := fmt.Fprintf(p.w, "%s %s\n", env.Type, env.Object)
		return err
	}
	m, f, err := env.Decode()
	if err != nil {
		return err
	}
	if m != nil {
		return p.message(m)
	}
	return p.frame(f)
}

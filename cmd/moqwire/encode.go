package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	errs "github.com/vango-dev/moqwire/internal/errors"
	"github.com/vango-dev/moqwire/pkg/inspect"
)

func encodeCmd() *cobra.Command {
	var hexOut bool

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode JSON envelopes to wire bytes",
		Long: `Encode JSON envelopes from a file or standard input.

The input is a sequence of envelopes, or arrays of envelopes, in the
form 'moqwire decode --json' prints. Their encodings are written back
to back.

Examples:
  moqwire encode messages.json > capture.moq
  echo '{"type":"unsubscribe","message":{"subscribeId":7}}' | moqwire encode --hex`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args, false)
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := encodeEnvelopes(in)
			if err != nil {
				return err
			}
			if hexOut {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out))
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&hexOut, "hex", "x", false, "Write hex text instead of raw bytes")

	return cmd
}

// encodeEnvelopes encodes every envelope in the JSON stream r.
func encodeEnvelopes(r io.Reader) ([]byte, error) {
	dec := json.NewDecoder(r)
	var out []byte
	for n := 0; ; {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, errs.New("E210").Wrap(err).WithDetail(fmt.Sprintf("Envelope %d is not valid JSON.", n))
		}

		items := []json.RawMessage{raw}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			items = nil
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return nil, errs.New("E210").Wrap(err)
			}
		}
		for _, item := range items {
			b, err := inspect.Encode(item)
			if err != nil {
				return nil, errs.FromDecode(fmt.Errorf("envelope %d: %w", n, err), -1)
			}
			out = append(out, b...)
			n++
		}
	}
}

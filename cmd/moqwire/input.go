package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/moqwire/pkg/server"
)

// openInput opens the file named by args, or standard input when there is
// none or it is "-". With hexText the input is decoded from hex first.
func openInput(cmd *cobra.Command, args []string, hexText bool) (io.ReadCloser, error) {
	var in io.ReadCloser = io.NopCloser(cmd.InOrStdin())
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		in = f
	}
	if !hexText {
		return in, nil
	}
	defer in.Close()

	text, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	b, err := server.DecodeHex(text)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// readInput returns the whole input.
func readInput(cmd *cobra.Command, args []string, hexText bool) ([]byte, error) {
	in, err := openInput(cmd, args, hexText)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return io.ReadAll(in)
}

// printJSON writes v as one line of JSON.
func printJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

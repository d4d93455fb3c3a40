package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	errs "github.com/vango-dev/moqwire/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain an error code",
		Long: `Print the explanation of an error code, or list every code.

Examples:
  moqwire explain
  moqwire explain E201`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				codes := errs.GetAllCodes()
				sort.Strings(codes)
				for _, code := range codes {
					t, _ := errs.GetTemplate(code)
					fmt.Fprintf(out, "%s  %-8s  %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			if _, ok := errs.GetTemplate(args[0]); !ok {
				return errs.Newf(errs.CategoryCLI, "unknown error code %q", args[0]).
					WithSuggestion("Run 'moqwire explain' to list the codes")
			}
			fmt.Fprint(out, errs.New(args[0]).Format())
			return nil
		},
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/cadastro/internal/form"
	"github.com/yanizio/cadastro/internal/message"
	"github.com/yanizio/cadastro/internal/prompt"
)

func newCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a JSON submission (use - for stdin)",
		Long: `Validate a JSON object of field -> string | [string] against a form.

Prints the normalised data on success.  On failure every field error is
printed as "field: message" and the command exits non-zero.

Examples:
  cadastro check submission.json
  echo '{"firstName":"Ana"}' | cadastro check -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sc, err := g.load()
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var snap form.Snapshot
			if err := json.NewDecoder(in).Decode(&snap); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			data, err := sc.Validate(snap)
			if ve, ok := form.AsValidationError(err); ok {
				for _, fe := range ve.Fields {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", fe.Name, fe.Message)
				}
				return fmt.Errorf("%d invalid field(s)", len(ve.Fields))
			}
			if err != nil {
				return err
			}
			return writeIndented(cmd.OutOrStdout(), data)
		},
	}
}

func newFillCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "fill",
		Short: "Fill a form interactively and run its actions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fd, sc, err := g.load()
			if err != nil {
				return err
			}
			runner := &form.Runner{Queue: message.NewLogQueue(zap.S()), Log: zap.S()}
			d := &prompt.Survey{Out: cmd.OutOrStdout()}

			var sub form.Submission
			_, err = prompt.Fill(cmd.Context(), d, fd, form.NewCoordinator(sc), func(ctx context.Context, data form.Snapshot) error {
				sub = form.NewSubmission(fd.ID, data, map[string]string{"source": "cli"})
				runner.Run(ctx, fd, sub)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s)\n", fd.Title, sub.ID)
			return nil
		},
	}
}

func newOptionsCmd(g *globals) *cobra.Command {
	var names bool
	cmd := &cobra.Command{
		Use:   "options [LIST]",
		Short: "Print the option catalog as JSON, or the values of one list",
		Long: `Print the option catalog.

Without arguments the whole catalog is printed as JSON.  With a list name
only its values are printed, one per line.  --names prints the list names.

Examples:
  cadastro options
  cadastro options states
  cadastro options --names`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := g.catalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case names:
				for _, n := range cat.Names() {
					fmt.Fprintln(out, n)
				}
				return nil
			case len(args) == 1:
				if _, ok := cat.Lookup(args[0]); !ok {
					return fmt.Errorf("unknown option list %q", args[0])
				}
				for _, v := range cat.Values(args[0]) {
					fmt.Fprintln(out, v)
				}
				return nil
			}
			return writeIndented(out, cat)
		},
	}
	cmd.Flags().BoolVar(&names, "names", false, "print list names only")
	return cmd
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

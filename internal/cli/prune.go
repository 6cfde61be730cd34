package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/palprune/internal/prune"
)

// pruneFlags are shared by the all and selected commands.
type pruneFlags struct {
	yes    bool
	dryRun bool
	strict bool
}

func (f *pruneFlags) register(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.yes, "yes", "y", false, "skip the confirmation prompt")
	fs.BoolVar(&f.dryRun, "dry-run", false, "show what would be removed without changing anything")
	fs.BoolVar(&f.strict, "strict", false, "refuse to prune when some drawing content cannot be read")
}

func newAllCmd(o *options) *cobra.Command {
	var f pruneFlags
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Remove unused colors from every palette and delete empty palettes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runPrune(cmd, &f, prune.Request{Mode: prune.ModeAll})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newSelectedCmd(o *options) *cobra.Command {
	var (
		f       pruneFlags
		palette string
	)
	cmd := &cobra.Command{
		Use:   "selected",
		Short: "Remove unused colors from the current palette",
		Long: `Remove unused colors from the current palette, or from the palette named with
--palette. The palette is deleted when no colors remain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runPrune(cmd, &f, prune.Request{Mode: prune.ModeSelected, Palette: palette})
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&palette, "palette", "", "palette id or name to prune instead of the current palette")
	return cmd
}

func (o *options) runPrune(cmd *cobra.Command, f *pruneFlags, req prune.Request) error {
	ctx := cmd.Context()
	req.SkipConfirm = f.yes
	req.DryRun = f.dryRun

	strict := o.config.Strict
	if cmd.Flags().Changed("strict") {
		strict = f.strict
	}

	s, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	p := prune.New(s.host,
		prune.WithConfirmer(o.confirmer),
		prune.WithLogger(o.logger.Named("prune")),
		prune.WithStrict(strict))

	result, err := p.Run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case result.Declined:
		if o.verbose {
			fmt.Fprintln(out, "Cancelled.")
		}
	case result.DryRun:
		if !o.quiet {
			return printPlan(out, result)
		}
	case o.verbose:
		printResult(out, result)
	}
	return nil
}

func printPlan(w io.Writer, result *prune.Result) error {
	fmt.Fprintf(w, "%s\n\n", result.Summary())

	table := NewTable("PALETTE", "KEEP", "REMOVE", "ACTION", "UNUSED COLORS").RightAlign(1, 2)
	for _, pp := range result.Plan.Palettes {
		table.AddRow(pp.Palette.String(), strconv.Itoa(len(pp.Keep)), strconv.Itoa(len(pp.Remove)),
			planAction(pp), joinColors(pp))
	}
	return table.Render(w)
}

func printResult(w io.Writer, result *prune.Result) {
	fmt.Fprintln(w, result.Summary())
	for _, ref := range result.DeletedPalettes {
		fmt.Fprintf(w, "  deleted %s (%s)\n", ref, ref.Path)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(w, "  failed: %s\n", f)
	}
	for _, u := range result.Unreadable {
		fmt.Fprintf(w, "  unreadable: %s\n", describeUnreadable(u))
	}
}

func describeUnreadable(u prune.UnreadableContent) string {
	if u.Frame == 0 {
		return fmt.Sprintf("%s: %v", u.Node, u.Err)
	}
	return fmt.Sprintf("%s frame %d (%q): %v", u.Node, u.Frame, u.Key, u.Err)
}

func planAction(pp prune.PalettePlan) string {
	switch {
	case pp.Empties():
		return "delete"
	case len(pp.Remove) > 0:
		return "prune"
	default:
		return "keep"
	}
}

func joinColors(pp prune.PalettePlan) string {
	ids := make([]string, len(pp.Remove))
	for i, c := range pp.Remove {
		ids[i] = string(c)
	}
	return strings.Join(ids, " ")
}

package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/palprune/internal/prune"
)

func newReportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show used and unused colors per palette without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := o.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			usage, err := prune.CollectUsage(ctx, s.host, o.logger.Named("usage"))
			if err != nil {
				return err
			}
			catalog, err := prune.CollectCatalog(ctx, s.host, prune.AllPalettes(), o.logger.Named("catalog"))
			if err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), usage, catalog, prune.BuildPlan(prune.ModeAll, usage, catalog))
		},
	}
}

func writeReport(w io.Writer, usage *prune.Usage, catalog *prune.Catalog, plan *prune.Plan) error {
	fmt.Fprintf(w, "%d drawing node(s), %d distinct drawing(s), %d color(s) in use\n\n",
		usage.Nodes, usage.Contents, len(usage.Colors))

	table := NewTable("PALETTE", "ID", "COLORS", "USED", "UNUSED", "ACTION").RightAlign(2, 3, 4)
	for _, pp := range plan.Palettes {
		total := len(pp.Keep) + len(pp.Remove)
		table.AddRow(pp.Palette.String(), string(pp.Palette.ID), strconv.Itoa(total),
			strconv.Itoa(len(pp.Keep)), strconv.Itoa(len(pp.Remove)), planAction(pp))
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if len(catalog.Shared) > 0 {
		fmt.Fprintln(w, "\nColor identifiers registered in several palettes:")
		shared := NewTable("COLOR", "PALETTES")
		for _, id := range slices.Sorted(maps.Keys(catalog.Shared)) {
			owners := make([]string, len(catalog.Shared[id]))
			for i, p := range catalog.Shared[id] {
				owners[i] = string(p)
			}
			shared.AddRow(string(id), strings.Join(owners, ", "))
		}
		if err := shared.Render(w); err != nil {
			return err
		}
	}

	if len(catalog.Skipped) > 0 {
		fmt.Fprintln(w, "\nPalettes that could not be read:")
		for _, f := range catalog.Skipped {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	if !usage.Complete() {
		fmt.Fprintf(w, "\n%d drawing(s) could not be read; their colors count as unused:\n", len(usage.Unreadable))
		for _, u := range usage.Unreadable {
			fmt.Fprintf(w, "  %s\n", describeUnreadable(u))
		}
	}
	return nil
}

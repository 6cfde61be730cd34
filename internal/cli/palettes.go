package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPalettesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "palettes",
		Short: "List the scene palettes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := o.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			palettes, err := s.host.Palettes(ctx)
			if err != nil {
				return fmt.Errorf("failed to list palettes: %w", err)
			}
			current, hasCurrent, err := s.host.CurrentPalette(ctx)
			if err != nil {
				return fmt.Errorf("failed to read current palette: %w", err)
			}

			table := NewTable("", "ID", "NAME", "COLORS", "PATH").RightAlign(3)
			for _, ref := range palettes {
				marker := ""
				if hasCurrent && ref.ID == current.ID {
					marker = "*"
				}
				count := "?"
				if n, err := s.host.PaletteColorCount(ctx, ref.ID); err == nil {
					count = strconv.Itoa(n)
				} else {
					o.logger.Warn("failed to count colors", "palette", ref.ID, "error", err)
				}
				table.AddRow(marker, string(ref.ID), ref.Name, count, ref.Path)
			}
			return table.Render(cmd.OutOrStdout())
		},
	}
}

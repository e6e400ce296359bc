package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	gobahrain "github.com/gobahrain/gobahrain/pkg/sdk"
)

func newPlacesCmd(client clientFunc) *cobra.Command {
	var (
		q      gobahrain.PlacesQuery
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "places [query]",
		Short: "List explorer places",
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Text = strings.Join(args, " ")
			c, err := client()
			if err != nil {
				return err
			}
			list, err := c.Places(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("places: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, list)
			}
			if list.Fallback {
				fmt.Fprintln(out, "(search unavailable, showing featured places)")
			}
			for _, p := range list.Places {
				fmt.Fprintf(out, "%-30s  %-10s  %s\n", p.Name, p.Kind, p.Category)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&q.TopK, "top-k", 0, "Number of places (server default when 0)")
	f.BoolVar(&q.MappableOnly, "mappable", false, "Only places with coordinates")
	f.BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

// errUnhealthy makes the command exit non-zero after the report is printed.
var errUnhealthy = errors.New("server unhealthy")

func newHealthCmd(client clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			hs, err := c.Health(cmd.Context())
			if hs == nil {
				return fmt.Errorf("health: %w", err)
			}
			if perr := printJSON(cmd.OutOrStdout(), hs); perr != nil {
				return perr
			}
			if err != nil {
				return errUnhealthy
			}
			return nil
		},
	}
}

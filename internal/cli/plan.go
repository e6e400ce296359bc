package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	gobahrain "github.com/gobahrain/gobahrain/pkg/sdk"
)

type prefFlags struct {
	food      []string
	interests []string
	budget    string
	pace      string
	vibe      string
}

func (p *prefFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&p.food, "food", nil, "Preferred food categories (repeatable or comma-separated)")
	f.StringSliceVar(&p.interests, "interest", nil, "Interests (repeatable or comma-separated)")
	f.StringVar(&p.budget, "budget", "", "Budget level")
	f.StringVar(&p.pace, "pace", "", "Pace")
	f.StringVar(&p.vibe, "vibe", "", "Vibe")
}

// preferences returns nil when no preference flag was set.
func (p *prefFlags) preferences() *gobahrain.Preferences {
	if len(p.food) == 0 && len(p.interests) == 0 && p.budget == "" && p.pace == "" && p.vibe == "" {
		return nil
	}
	return &gobahrain.Preferences{
		Food: p.food, Interests: p.interests, Budget: p.budget, Pace: p.pace, Vibe: p.vibe,
	}
}

func newPlanCmd(client clientFunc) *cobra.Command {
	var (
		prefs  prefFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "plan <message>",
		Short: "Generate a one-day itinerary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			plan, err := c.Plan(cmd.Context(), strings.Join(args, " "), prefs.preferences())
			if err != nil {
				return fmt.Errorf("plan: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, plan)
			}
			for _, it := range plan.Items {
				fmt.Fprintf(out, "%-9s  %-10s  %s\n", it.Time, it.Type, it.Spot)
				if it.Reason != "" {
					fmt.Fprintf(out, "           %s\n", it.Reason)
				}
			}
			for _, is := range plan.Issues {
				fmt.Fprintf(out, "warning: %s", is.Message)
				if is.Suggestion != "" {
					fmt.Fprintf(out, " (did you mean %q?)", is.Suggestion)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%d stops, %d ms\n", len(plan.Items), plan.LatencyMs)
			return nil
		},
	}
	prefs.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

func newMatchCmd(client clientFunc) *cobra.Command {
	var (
		prefs prefFlags
		topK  int
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find client profiles matching interests and food",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			res, err := c.MatchClients(cmd.Context(), prefs.interests, prefs.food, topK)
			if err != nil {
				return fmt.Errorf("match clients: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	prefs.register(cmd)
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of matches (server default when 0)")
	return cmd
}

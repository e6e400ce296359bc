package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	gobahrain "github.com/gobahrain/gobahrain/pkg/sdk"
)

func newChatCmd(client clientFunc) *cobra.Command {
	var (
		prefs       prefFlags
		historyFile string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the travel assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := readHistory(historyFile)
			if err != nil {
				return err
			}
			c, err := client()
			if err != nil {
				return err
			}
			reply, err := c.Chat(cmd.Context(), strings.Join(args, " "), history, prefs.preferences())
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, reply)
			}
			fmt.Fprintln(out, reply.Reply)
			for _, a := range reply.Actions {
				fmt.Fprintf(out, "-> %s %s%s\n", a.Type, a.Query, a.Place)
			}
			return nil
		},
	}
	prefs.register(cmd)
	cmd.Flags().StringVar(&historyFile, "history", "", "JSON file with prior turns ([{\"role\",\"text\"}])")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

func readHistory(path string) ([]gobahrain.ChatTurn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []gobahrain.ChatTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return turns, nil
}

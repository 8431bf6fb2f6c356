package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-persona/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "associate [text]",
		Short: "Find memories sharing keywords with a text",
		Long:  "Score stored memories by keyword overlap with the text, strongest overlap first, newest breaking ties.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAssociate,
	}

	cmd.Flags().IntP("limit", "l", memory.DefaultAssociatedLimit, "Max results")

	RootCmd.AddCommand(cmd)
}

func runAssociate(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	text := strings.Join(args, " ")

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	printJSON(cmd, a.memory.Associated(text, limit))
}

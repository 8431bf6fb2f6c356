package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-persona/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "narrate [topic]",
		Short: "Compose a narrative fragment in the current mood",
		Long:  "Compose a narrative fragment about a topic. Without a topic the current theme is continued.",
		Run:   runNarrate,
	}

	cmd.Flags().StringP("mode", "m", "", "Narrative mode (default: profile's defaultMode)")

	RootCmd.AddCommand(cmd)
}

func runNarrate(cmd *cobra.Command, args []string) {
	mode, _ := cmd.Flags().GetString("mode")
	topic := strings.Join(args, " ")

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	fragment, err := a.orch.Narrate(cmd.Context(), topic, model.Mode(mode))
	if err != nil {
		exitErr("narrate", err)
	}

	if formatFlag == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), fragment)
		return
	}
	printJSON(cmd, map[string]string{"narrative": fragment})
}

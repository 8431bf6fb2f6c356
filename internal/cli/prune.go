package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete memories older than the retention window",
		Run:   runPrune,
	}

	cmd.Flags().Int("days", -1, "Retention in days (default: retention.days or the profile's memoryRetentionDays)")

	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	if days < 0 {
		days = a.retentionDays()
	}
	removed, err := a.memory.PruneExpired(cmd.Context(), days)
	if err != nil {
		exitErr("prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"removed":%d,"retentionDays":%d}`+"\n", removed, days)
}

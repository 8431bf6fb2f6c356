package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the current mood and narrative theme",
		Run:   runState,
	}

	RootCmd.AddCommand(cmd)
}

func runState(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	printJSON(cmd, a.orch.View())
}

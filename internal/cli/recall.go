package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-persona/internal/memory"
	"github.com/rcliao/agent-persona/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "List memories, most recent first",
		Run:   runRecall,
	}

	cmd.Flags().StringP("kind", "k", "", "Filter by kind")
	cmd.Flags().StringP("emotion", "e", "", "Filter by emotional context")
	cmd.Flags().StringP("platform", "p", "", "Filter by platform")
	cmd.Flags().IntP("limit", "l", 20, "Max results (0 for all)")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	emo, _ := cmd.Flags().GetString("emotion")
	platform, _ := cmd.Flags().GetString("platform")
	limit, _ := cmd.Flags().GetInt("limit")

	p := memory.QueryParams{Limit: limit}
	if kind != "" {
		k, err := model.ParseKind(kind)
		if err != nil {
			exitErr("recall", err)
		}
		p.Kind = k
	}
	if emo != "" {
		e, err := model.ParseEmotionalState(emo)
		if err != nil {
			exitErr("recall", err)
		}
		p.EmotionalContext = e
	}
	if platform != "" {
		pl, err := model.ParsePlatform(platform)
		if err != nil {
			exitErr("recall", err)
		}
		p.Platform = pl
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	printJSON(cmd, a.memory.Query(p))
}

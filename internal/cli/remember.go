package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-persona/internal/memory"
	"github.com/rcliao/agent-persona/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store a memory",
		Long:  "Store a memory without generating a reply. Content can be a positional arg or piped via stdin.",
		Run:   runRemember,
	}

	cmd.Flags().StringP("kind", "k", "fact", "Kind: experience, fact, emotion, interaction, narrative")
	cmd.Flags().StringP("emotion", "e", "neutral", "Emotional context: neutral, excited, contemplative, chaotic, creative, analytical")
	cmd.Flags().StringP("platform", "p", "chat", "Platform: chat, twitter, telegram")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	emo, _ := cmd.Flags().GetString("emotion")
	platform, _ := cmd.Flags().GetString("platform")

	content, err := readContent(cmd, args)
	if err != nil {
		exitErr("remember", err)
	}
	if strings.TrimSpace(content) == "" {
		exitErr("remember", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	rec, err := a.memory.Append(cmd.Context(), memory.AppendParams{
		Content:          strings.TrimSpace(content),
		Kind:             model.Kind(kind),
		EmotionalContext: model.EmotionalState(emo),
		Platform:         model.Platform(platform),
	})
	if err != nil {
		exitErr("remember", err)
	}

	printJSON(cmd, rec)
}

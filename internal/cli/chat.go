package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/orchestrator"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send a message and get an in-character reply",
		Long: "Run one conversational turn: update the mood, recall related memories, generate a reply " +
			"and remember the exchange. The message can be a positional arg or piped via stdin.",
		Run: runChat,
	}

	cmd.Flags().StringP("platform", "p", "chat", "Platform: chat, twitter, telegram")
	cmd.Flags().StringP("mode", "m", "", "Narrative mode (default: profile's defaultMode)")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	platform, _ := cmd.Flags().GetString("platform")
	mode, _ := cmd.Flags().GetString("mode")

	message, err := readContent(cmd, args)
	if err != nil {
		exitErr("chat", err)
	}
	if strings.TrimSpace(message) == "" {
		exitErr("chat", fmt.Errorf("message is required (positional arg or stdin)"))
	}

	a, err := openApp(cmd.Context(), true)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	res, err := a.orch.Process(cmd.Context(), strings.TrimSpace(message), model.Platform(platform), orchestrator.Hints{Mode: model.Mode(mode)})
	if err != nil {
		exitErr("chat", err)
	}

	if formatFlag == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), res.ResponseText)
		return
	}
	printJSON(cmd, res)
}

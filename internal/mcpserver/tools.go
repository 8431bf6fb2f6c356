package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/rcliao/agent-persona/internal/memory"
	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/orchestrator"
)

type handlerFunc = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// NewChatTool creates the persona_chat tool definition
func NewChatTool() mcp.Tool {
	return mcp.NewTool("persona_chat",
		mcp.WithDescription("Send a message to the persona. Updates its mood, recalls related memories, and returns an in-character reply. The exchange is remembered."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The incoming message"),
		),
		mcp.WithString("platform",
			mcp.Description("Where the message came from: chat, twitter or telegram (default chat)"),
		),
		mcp.WithString("mode",
			mcp.Description("Narrative mode: philosophical, absurdist, analytical, existential or surreal"),
		),
	)
}

// ChatHandler handles the persona_chat tool
func ChatHandler(tc *ToolContext) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := request.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		platform := model.Platform(request.GetString("platform", ""))
		hints := orchestrator.Hints{Mode: model.Mode(request.GetString("mode", ""))}

		res, err := tc.Orchestrator.Process(ctx, message, platform, hints)
		if err != nil {
			return toolError(tc, "persona_chat", err), nil
		}
		return jsonResult(res)
	}
}

// NewRememberTool creates the persona_remember tool definition
func NewRememberTool() mcp.Tool {
	return mcp.NewTool("persona_remember",
		mcp.WithDescription("Store a memory for the persona without generating a reply."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The text to remember"),
		),
		mcp.WithString("kind",
			mcp.Description("experience, fact, emotion, interaction or narrative (default fact)"),
		),
		mcp.WithString("emotional_context",
			mcp.Description("Emotional state to tag the memory with (default neutral)"),
		),
		mcp.WithString("platform",
			mcp.Description("chat, twitter or telegram (default chat)"),
		),
	)
}

// RememberHandler handles the persona_remember tool
func RememberHandler(tc *ToolContext) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rec, err := tc.Memory.Append(ctx, memory.AppendParams{
			Content:          content,
			Kind:             model.Kind(request.GetString("kind", string(model.KindFact))),
			EmotionalContext: model.EmotionalState(request.GetString("emotional_context", "")),
			Platform:         model.Platform(request.GetString("platform", "")),
		})
		if err != nil {
			return toolError(tc, "persona_remember", err), nil
		}
		return jsonResult(rec)
	}
}

// NewRecallTool creates the persona_recall tool definition
func NewRecallTool() mcp.Tool {
	return mcp.NewTool("persona_recall",
		mcp.WithDescription("List stored memories, most recent first. All filters are optional."),
		mcp.WithString("kind",
			mcp.Description("Only memories of this kind"),
		),
		mcp.WithString("emotional_context",
			mcp.Description("Only memories tagged with this emotional state"),
		),
		mcp.WithString("platform",
			mcp.Description("Only memories from this platform"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default 20, 0 for all)"),
		),
	)
}

// RecallHandler handles the persona_recall tool
func RecallHandler(tc *ToolContext) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p := memory.QueryParams{Limit: int(request.GetFloat("limit", 20))}
		if s := request.GetString("kind", ""); s != "" {
			k, err := model.ParseKind(s)
			if err != nil {
				return toolError(tc, "persona_recall", err), nil
			}
			p.Kind = k
		}
		if s := request.GetString("emotional_context", ""); s != "" {
			e, err := model.ParseEmotionalState(s)
			if err != nil {
				return toolError(tc, "persona_recall", err), nil
			}
			p.EmotionalContext = e
		}
		if s := request.GetString("platform", ""); s != "" {
			pl, err := model.ParsePlatform(s)
			if err != nil {
				return toolError(tc, "persona_recall", err), nil
			}
			p.Platform = pl
		}
		return jsonResult(tc.Memory.Query(p))
	}
}

// NewAssociateTool creates the persona_associate tool definition
func NewAssociateTool() mcp.Tool {
	return mcp.NewTool("persona_associate",
		mcp.WithDescription("Find memories sharing keywords with a text, strongest overlap first."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to associate against"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default 5)"),
		),
	)
}

// AssociateHandler handles the persona_associate tool
func AssociateHandler(tc *ToolContext) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := int(request.GetFloat("limit", memory.DefaultAssociatedLimit))
		return jsonResult(tc.Memory.Associated(text, limit))
	}
}

// NewPatternsTool creates the persona_patterns tool definition
func NewPatternsTool() mcp.Tool {
	return mcp.NewTool("persona_patterns",
		mcp.WithDescription("Report recurring themes across stored memories."),
	)
}

// PatternsHandler handles the persona_patterns tool
func PatternsHandler(tc *ToolContext) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(tc.Memory.DetectPatterns())
	}
}

// NewStateTool creates the persona_state tool definition
func NewStateTool() mcp.Tool {
	return mcp.NewTool("persona_state",
		mcp.WithDescription("Show the persona's current emotional state and narrative theme."),
	)
}

// StateHandler handles the persona_state tool
func StateHandler(tc *ToolContext) handlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(tc.Orchestrator.View())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError reports err to the client as a tool failure prefixed with its kind.
func toolError(tc *ToolContext, tool string, err error) *mcp.CallToolResult {
	kind := model.KindOf(err)
	if kind != model.ErrKindValidation {
		tc.log().Warn("tool failed", zap.String("tool", tool), zap.String("kind", string(kind)), zap.Error(err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}

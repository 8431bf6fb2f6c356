package orchestrator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rcliao/agent-persona/internal/memory"
	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/personality"
)

// ContextMemory is a memory packed into the prompt.
type ContextMemory struct {
	Kind    model.Kind `json:"kind"`
	Content string     `json:"content"`
	Score   float64    `json:"score"`
	Excerpt bool       `json:"excerpt,omitempty"`
}

// packMemories greedily fits associated memories into budget tokens
// (1 token ≈ 4 chars), best first. The first memory that does not fit is
// cut to an excerpt when at least 100 chars remain; packing stops there.
func packMemories(matches []memory.Match, budget int) []ContextMemory {
	charBudget := budget * 4

	type scored struct {
		m     memory.Match
		score float64
	}
	candidates := make([]scored, 0, len(matches))
	for i, m := range matches {
		// Relevance from overlap rank, weighted with the memory's own importance.
		relevance := 1.0 / float64(i+1)
		score := relevance*0.6 + m.Importance*0.4
		candidates = append(candidates, scored{m: m, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var out []ContextMemory
	used := 0
	for _, c := range candidates {
		content := c.m.Content
		if used+len(content) <= charBudget {
			out = append(out, ContextMemory{
				Kind:    c.m.Kind,
				Content: content,
				Score:   math.Round(c.score*100) / 100,
			})
			used += len(content)
			continue
		}
		if remaining := charBudget - used; remaining >= 100 {
			out = append(out, ContextMemory{
				Kind:    c.m.Kind,
				Content: cutRunes(content, remaining) + "...",
				Score:   math.Round(c.score*100) / 100,
				Excerpt: true,
			})
		}
		break
	}
	return out
}

// cutRunes trims s to at most n bytes without splitting a rune.
func cutRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

type promptParts struct {
	profile  *personality.Profile
	state    model.EmotionalState
	style    string
	fragment string
	memories []ContextMemory
	platform model.Platform
	input    string
}

func buildPrompt(p promptParts) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.", p.profile.Name)
	if p.profile.Description != "" {
		fmt.Fprintf(&b, " %s", p.profile.Description)
	}
	b.WriteString("\n")
	if len(p.profile.Traits) > 0 {
		fmt.Fprintf(&b, "Traits: %s.\n", strings.Join(p.profile.Traits, ", "))
	}

	fmt.Fprintf(&b, "Current mood: %s.", p.state)
	if p.style != "" {
		fmt.Fprintf(&b, " %s", p.style)
	}
	b.WriteString("\n")

	if p.fragment != "" {
		fmt.Fprintf(&b, "Narrative thread: %s\n", p.fragment)
	}

	if len(p.memories) > 0 {
		b.WriteString("\nThings you remember:\n")
		for _, m := range p.memories {
			fmt.Fprintf(&b, "- (%s) %s\n", m.Kind, m.Content)
		}
	}

	fmt.Fprintf(&b, "\nMessage on %s:\n%s\n\nReply in character.", p.platform, p.input)
	return b.String()
}

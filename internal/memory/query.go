package memory

import (
	"slices"
	"sort"
	"strings"

	"github.com/rcliao/agent-persona/internal/model"
)

// DefaultAssociatedLimit is the GetAssociated limit when none is given.
const DefaultAssociatedLimit = 5

// QueryParams filters a memory query. Zero values match everything.
type QueryParams struct {
	Kind             model.Kind
	EmotionalContext model.EmotionalState
	Platform         model.Platform
	Limit            int // 0 means unlimited
}

// Query returns memories matching every set filter, most recent first.
func (s *Store) Query(p QueryParams) []model.MemoryRecord {
	log := s.snapshot()
	out := []model.MemoryRecord{}
	for i := len(log) - 1; i >= 0; i-- {
		m := log[i]
		if p.Kind != "" && m.Kind != p.Kind {
			continue
		}
		if p.EmotionalContext != "" && m.EmotionalContext != p.EmotionalContext {
			continue
		}
		if p.Platform != "" && m.Platform != p.Platform {
			continue
		}
		out = append(out, detach(m))
		if p.Limit > 0 && len(out) == p.Limit {
			break
		}
	}
	return out
}

// Match is a memory scored against a query text.
type Match struct {
	model.MemoryRecord
	Overlap int `json:"overlap"`
}

// Associated returns memories sharing at least one association keyword
// with text, by descending overlap and then newest first. A limit of zero
// or less means DefaultAssociatedLimit.
func (s *Store) Associated(text string, limit int) []Match {
	if limit <= 0 {
		limit = DefaultAssociatedLimit
	}
	want := tokenSet(text)
	if len(want) == 0 {
		return []Match{}
	}

	log := s.snapshot()
	type scored struct {
		Match
		pos int
	}
	var candidates []scored
	for i, m := range log {
		overlap := 0
		for _, a := range m.Associations {
			if want[a] {
				overlap++
			}
		}
		if overlap >= 1 {
			candidates = append(candidates, scored{Match: Match{MemoryRecord: m, Overlap: overlap}, pos: i})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Overlap != b.Overlap {
			return a.Overlap > b.Overlap
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.pos > b.pos
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]Match, len(candidates))
	for i, c := range candidates {
		out[i] = c.Match
		out[i].MemoryRecord = detach(c.MemoryRecord)
	}
	return out
}

// detach gives m its own Associations so callers cannot write into the log.
func detach(m model.MemoryRecord) model.MemoryRecord {
	m.Associations = slices.Clone(m.Associations)
	return m
}

// GetAssociated is Associated without the scores.
func (s *Store) GetAssociated(text string, limit int) []model.MemoryRecord {
	matches := s.Associated(text, limit)
	out := make([]model.MemoryRecord, len(matches))
	for i, m := range matches {
		out[i] = m.MemoryRecord
	}
	return out
}

// patternKeywords is how many leading associations describe a memory when clustering.
const patternKeywords = 5

// patternSimilarity is the minimum Jaccard similarity to join a cluster.
const patternSimilarity = 0.5

// Pattern is a recurring theme across stored memories.
type Pattern struct {
	Pattern   string   `json:"pattern"`
	Frequency int      `json:"frequency"`
	MemoryIDs []string `json:"memoryIds"`
}

type cluster struct {
	seed   map[string]bool
	common map[string]bool
	ids    []string
}

// DetectPatterns clusters memories whose leading association keywords
// overlap and returns clusters seen at least twice, most frequent first.
// A memory joins the first cluster, in insertion order, whose seed it
// resembles closely enough; otherwise it seeds a new one.
func (s *Store) DetectPatterns() []Pattern {
	log := s.snapshot()
	out := []Pattern{}
	if len(log) < 2 {
		return out
	}

	var clusters []*cluster
	for _, m := range log {
		keys := leadingKeys(m.Associations)
		if len(keys) == 0 {
			continue
		}
		var home *cluster
		for _, c := range clusters {
			if jaccard(c.seed, keys) >= patternSimilarity {
				home = c
				break
			}
		}
		if home == nil {
			clusters = append(clusters, &cluster{seed: keys, common: copySet(keys), ids: []string{m.ID}})
			continue
		}
		for k := range home.common {
			if !keys[k] {
				delete(home.common, k)
			}
		}
		home.ids = append(home.ids, m.ID)
	}

	for _, c := range clusters {
		if len(c.ids) < 2 {
			continue
		}
		label := c.common
		if len(label) == 0 {
			label = c.seed
		}
		out = append(out, Pattern{
			Pattern:   strings.Join(sortedSet(label), " "),
			Frequency: len(c.ids),
			MemoryIDs: c.ids,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

func leadingKeys(assoc []string) map[string]bool {
	n := len(assoc)
	if n > patternKeywords {
		n = patternKeywords
	}
	keys := make(map[string]bool, n)
	for _, a := range assoc[:n] {
		keys[a] = true
	}
	return keys
}

func jaccard(a, b map[string]bool) float64 {
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func copySet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package memory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rcliao/agent-persona/internal/model"
)

// Stats summarizes the memory log.
type Stats struct {
	Total         int            `json:"total"`
	ByKind        map[string]int `json:"byKind"`
	ByPlatform    map[string]int `json:"byPlatform"`
	ByEmotion     map[string]int `json:"byEmotion"`
	AvgImportance float64        `json:"avgImportance"`
	Oldest        *time.Time     `json:"oldest,omitempty"`
	Newest        *time.Time     `json:"newest,omitempty"`
}

// Stats returns counts over the current snapshot.
func (s *Store) Stats() Stats {
	log := s.snapshot()
	st := Stats{
		Total:      len(log),
		ByKind:     map[string]int{},
		ByPlatform: map[string]int{},
		ByEmotion:  map[string]int{},
	}
	if len(log) == 0 {
		return st
	}

	sum := 0.0
	oldest, newest := log[0].CreatedAt, log[0].CreatedAt
	for _, m := range log {
		st.ByKind[string(m.Kind)]++
		st.ByPlatform[string(m.Platform)]++
		st.ByEmotion[string(m.EmotionalContext)]++
		sum += m.Importance
		if m.CreatedAt.Before(oldest) {
			oldest = m.CreatedAt
		}
		if m.CreatedAt.After(newest) {
			newest = m.CreatedAt
		}
	}
	st.AvgImportance = math.Round(sum/float64(len(log))*1000) / 1000
	st.Oldest, st.Newest = &oldest, &newest
	return st
}

// ExportAll returns every memory, oldest first.
func (s *Store) ExportAll() []model.MemoryRecord {
	log := s.snapshot()
	out := make([]model.MemoryRecord, len(log))
	for i, m := range log {
		out[i] = detach(m)
	}
	return out
}

// Import re-appends exported memories. Ids, timestamps and scores are
// assigned fresh; kind, platform and emotional context are kept. Every
// record is checked before the first append, so a bad record imports nothing.
func (s *Store) Import(ctx context.Context, memories []model.MemoryRecord) (int, error) {
	params := make([]AppendParams, len(memories))
	for i, m := range memories {
		p, err := checkParams(AppendParams{
			Content:          m.Content,
			Kind:             m.Kind,
			EmotionalContext: m.EmotionalContext,
			Platform:         m.Platform,
		})
		if err != nil {
			return 0, fmt.Errorf("memory %d: %w", i, err)
		}
		params[i] = p
	}

	imported := 0
	for _, p := range params {
		if _, err := s.Append(ctx, p); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

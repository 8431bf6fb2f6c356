package emotion

import "github.com/rcliao/agent-persona/internal/model"

type weighted struct {
	state  model.EmotionalState
	weight float64
}

// transitions is keyed by current state and sentiment polarity. Positive
// input only leads to excited, creative or analytical; negative input to
// chaotic, contemplative or analytical; neutral input to analytical,
// neutral or contemplative. Weights in a row sum to 1.
var transitions = map[model.EmotionalState]map[Polarity][]weighted{
	model.StateNeutral: {
		Positive: {{model.StateExcited, 0.5}, {model.StateCreative, 0.4}, {model.StateAnalytical, 0.1}},
		Negative: {{model.StateContemplative, 0.5}, {model.StateChaotic, 0.4}, {model.StateAnalytical, 0.1}},
		Neutral:  {{model.StateAnalytical, 0.7}, {model.StateContemplative, 0.3}},
	},
	model.StateExcited: {
		Positive: {{model.StateCreative, 0.7}, {model.StateAnalytical, 0.3}},
		Negative: {{model.StateChaotic, 0.6}, {model.StateContemplative, 0.4}},
		Neutral:  {{model.StateNeutral, 0.6}, {model.StateAnalytical, 0.4}},
	},
	model.StateContemplative: {
		Positive: {{model.StateCreative, 0.5}, {model.StateExcited, 0.4}, {model.StateAnalytical, 0.1}},
		Negative: {{model.StateChaotic, 0.6}, {model.StateAnalytical, 0.4}},
		Neutral:  {{model.StateAnalytical, 0.5}, {model.StateNeutral, 0.5}},
	},
	model.StateChaotic: {
		Positive: {{model.StateExcited, 0.6}, {model.StateCreative, 0.4}},
		Negative: {{model.StateContemplative, 0.7}, {model.StateAnalytical, 0.3}},
		Neutral:  {{model.StateNeutral, 0.6}, {model.StateAnalytical, 0.4}},
	},
	model.StateCreative: {
		Positive: {{model.StateExcited, 0.7}, {model.StateAnalytical, 0.3}},
		Negative: {{model.StateContemplative, 0.6}, {model.StateChaotic, 0.4}},
		Neutral:  {{model.StateAnalytical, 0.5}, {model.StateNeutral, 0.5}},
	},
	model.StateAnalytical: {
		Positive: {{model.StateCreative, 0.5}, {model.StateExcited, 0.5}},
		Negative: {{model.StateContemplative, 0.6}, {model.StateChaotic, 0.4}},
		Neutral:  {{model.StateNeutral, 0.7}, {model.StateContemplative, 0.3}},
	},
}

// pick walks the cumulative weights with r in [0,1). The last entry absorbs
// rounding so a row always yields a state.
func pick(row []weighted, r float64) model.EmotionalState {
	total := 0.0
	for _, w := range row {
		total += w.weight
	}
	acc := 0.0
	for _, w := range row {
		acc += w.weight / total
		if r < acc {
			return w.state
		}
	}
	return row[len(row)-1].state
}

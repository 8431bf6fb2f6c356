package emotion

import (
	"strings"
	"unicode"
)

// Sentiment is the lexical reading of one input.
type Sentiment struct {
	Score     float64 `json:"score"`     // -1 (negative) .. 1 (positive)
	Intensity float64 `json:"intensity"` // 0 .. 1
}

type weightedWord struct {
	word   string
	weight float64
}

// Strong words weigh more so a single hit registers; mild words need company.
var positiveWords = []weightedWord{
	{"thrilled", 0.6}, {"ecstatic", 0.6}, {"overjoyed", 0.6}, {"elated", 0.5},
	{"love", 0.5}, {"amazing", 0.5}, {"incredible", 0.5}, {"fantastic", 0.5},
	{"wonderful", 0.5}, {"awesome", 0.4}, {"excited", 0.4}, {"delighted", 0.4},
	{"brilliant", 0.4}, {"beautiful", 0.3}, {"great", 0.3}, {"happy", 0.3},
	{"glad", 0.3}, {"nice", 0.2}, {"good", 0.2}, {"fun", 0.2}, {"thanks", 0.2},
	{"cool", 0.2}, {"enjoy", 0.3}, {"proud", 0.3}, {"hope", 0.2}, {"curious", 0.2},
}

var negativeWords = []weightedWord{
	{"furious", 0.6}, {"devastated", 0.6}, {"hate", 0.5}, {"terrible", 0.5},
	{"awful", 0.5}, {"horrible", 0.5}, {"miserable", 0.5}, {"disgusting", 0.5},
	{"angry", 0.4}, {"afraid", 0.4}, {"scared", 0.4}, {"broken", 0.3},
	{"useless", 0.4}, {"disappointed", 0.4}, {"worried", 0.3}, {"anxious", 0.3},
	{"sad", 0.3}, {"lonely", 0.3}, {"tired", 0.2}, {"bad", 0.2}, {"wrong", 0.2},
	{"confused", 0.2}, {"boring", 0.2}, {"annoying", 0.3}, {"sigh", 0.3},
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"isn't": true, "isnt": true, "wasn't": true, "wasnt": true, "can't": true, "cant": true,
}

// Analyzer scores text with weighted keyword lists.
type Analyzer struct {
	positive map[string]float64
	negative map[string]float64
}

// NewAnalyzer creates an analyzer with the built-in English lexicon.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{
		positive: make(map[string]float64, len(positiveWords)),
		negative: make(map[string]float64, len(negativeWords)),
	}
	for _, w := range positiveWords {
		a.positive[w.word] = w.weight
	}
	for _, w := range negativeWords {
		a.negative[w.word] = w.weight
	}
	return a
}

// Analyze returns the sentiment of text. A negator directly before a
// keyword flips its polarity. Exclamation marks and shouted words raise
// intensity but never polarity.
func (a *Analyzer) Analyze(text string) Sentiment {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	var pos, neg float64
	shouted := 0
	for i, raw := range words {
		w := strings.ToLower(raw)
		if len(raw) >= 3 && raw == strings.ToUpper(raw) && strings.ToLower(raw) != raw {
			shouted++
		}
		negated := i > 0 && negators[strings.ToLower(words[i-1])]
		if weight, ok := a.positive[w]; ok {
			if negated {
				neg += weight
			} else {
				pos += weight
			}
		}
		if weight, ok := a.negative[w]; ok {
			if negated {
				pos += weight / 2
			} else {
				neg += weight
			}
		}
	}

	var s Sentiment
	if total := pos + neg; total > 0 {
		s.Score = (pos - neg) / total
		s.Intensity = total
	}

	// Exclamation boost: 0.1 per mark, capped at 0.2.
	boost := float64(strings.Count(text, "!")) * 0.1
	if boost > 0.2 {
		boost = 0.2
	}
	if shouted > 0 {
		boost += 0.1
	}
	if s.Intensity > 0 {
		s.Intensity += boost
	}

	s.Score = clamp(s.Score, -1, 1)
	s.Intensity = clamp(s.Intensity, 0, 1)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

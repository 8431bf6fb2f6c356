package memory

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxAssociations caps the keywords kept per record.
const maxAssociations = 12

// minTokenLen drops short filler like "is", "an", "of".
const minTokenLen = 3

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "your": true, "all": true, "any": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true, "has": true,
	"have": true, "him": true, "his": true, "how": true, "its": true, "may": true,
	"new": true, "now": true, "old": true, "see": true, "two": true, "who": true,
	"did": true, "get": true, "got": true, "let": true, "put": true, "say": true,
	"she": true, "too": true, "use": true, "this": true, "that": true, "with": true,
	"from": true, "they": true, "them": true, "then": true, "than": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "will": true, "would": true,
	"there": true, "their": true, "these": true, "those": true, "about": true, "into": true,
	"just": true, "also": true, "been": true, "being": true, "were": true, "does": true,
	"doing": true, "some": true, "such": true, "very": true, "more": true, "most": true,
	"only": true, "over": true, "same": true, "should": true, "could": true, "here": true,
	"because": true, "after": true, "before": true, "again": true, "each": true, "other": true,
	"why": true, "yes": true, "yet": true, "really": true, "like": true, "want": true,
}

// salience weights emotionally loaded words. They raise importance and
// win association slots over plain words of the same frequency.
var salience = map[string]float64{
	"love": 0.3, "hate": 0.3, "fear": 0.25, "afraid": 0.25, "joy": 0.25,
	"thrilled": 0.3, "excited": 0.25, "happy": 0.2, "sad": 0.2, "angry": 0.25,
	"furious": 0.3, "grief": 0.3, "lonely": 0.25, "hope": 0.2, "dream": 0.2,
	"death": 0.3, "life": 0.15, "meaning": 0.2, "wonder": 0.2, "chaos": 0.2,
	"beautiful": 0.2, "terrible": 0.25, "awful": 0.25, "amazing": 0.2, "wonderful": 0.2,
	"important": 0.2, "remember": 0.15, "never": 0.1, "always": 0.1, "forever": 0.2,
	"proud": 0.2, "ashamed": 0.25, "worried": 0.2, "anxious": 0.25, "calm": 0.15,
	"launch": 0.15, "secret": 0.2, "truth": 0.2, "lost": 0.15, "found": 0.1,
}

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit. Stopwords and tokens shorter than three runes are dropped.
// Order and duplicates are preserved.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLen || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// tokenSet returns the distinct tokens of text.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokenize(text) {
		set[t] = true
	}
	return set
}

// Associations derives the retrieval keywords for content: the most frequent
// distinct tokens, salient words first among equals, then first occurrence.
// The result is always a subset of Tokenize(content).
func Associations(content string) []string {
	tokens := Tokenize(content)
	freq := make(map[string]int)
	first := make(map[string]int)
	var uniq []string
	for i, t := range tokens {
		if _, ok := freq[t]; !ok {
			first[t] = i
			uniq = append(uniq, t)
		}
		freq[t]++
	}

	sort.SliceStable(uniq, func(i, j int) bool {
		a, b := uniq[i], uniq[j]
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		if salience[a] != salience[b] {
			return salience[a] > salience[b]
		}
		return first[a] < first[b]
	})
	if len(uniq) > maxAssociations {
		uniq = uniq[:maxAssociations]
	}
	if uniq == nil {
		return []string{}
	}
	return uniq
}

// Importance scores content in [0,1]: up to 0.4 for length (saturating at
// 500 runes) plus the summed salience of its distinct tokens, capped at 0.6.
func Importance(content string) float64 {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	length := float64(n) / 500
	if length > 1 {
		length = 1
	}

	keywords := 0.0
	for t := range tokenSet(content) {
		keywords += salience[t]
	}
	if keywords > 0.6 {
		keywords = 0.6
	}

	return clamp01(0.4*length + keywords)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package insight

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/research-analyzer/internal/types"
)

// Labels that introduce each bracketed list in an oracle reply.
const (
	LabelTriggers    = "Effective Triggers"
	LabelCompetitors = "Competitors"
	LabelWordCloud   = "Word Cloud Data"
	LabelPainPoints  = "Pain Points"
)

// Parser turns free-text oracle replies into structured values.
type Parser interface {
	// List returns the entries of the bracketed list after label, or an
	// empty slice when the label is absent.
	List(reply, label string) []string
	// Triggers returns the weighted entries of the triggers list. Entries
	// that do not follow the "name (weight)" grammar are dropped.
	Triggers(reply string) []types.WeightedTrigger
}

// LabelParser is the default Parser. It finds "<Label>: [ ... ]" with a
// regular expression and splits the contents on commas.
type LabelParser struct{}

var _ Parser = LabelParser{}

var (
	labelPatterns  = map[string]*regexp.Regexp{}
	triggerPattern = regexp.MustCompile(`^(.+?)\s*\((\d{1,3})\)$`)
)

func init() {
	for _, label := range []string{LabelTriggers, LabelCompetitors, LabelWordCloud, LabelPainPoints} {
		labelPatterns[label] = labelPattern(label)
	}
}

func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(label) + `:\s*\[(.*?)\]`)
}

// List implements Parser.
func (LabelParser) List(reply, label string) []string {
	pattern, ok := labelPatterns[label]
	if !ok {
		pattern = labelPattern(label)
	}

	match := pattern.FindStringSubmatch(reply)
	if match == nil {
		return []string{}
	}

	entries := []string{}
	for _, raw := range strings.Split(match[1], ",") {
		entry := strings.Trim(strings.TrimSpace(raw), ` "'`)
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Triggers implements Parser.
func (p LabelParser) Triggers(reply string) []types.WeightedTrigger {
	triggers := []types.WeightedTrigger{}
	for _, entry := range p.List(reply, LabelTriggers) {
		if t, ok := ParseTrigger(entry); ok {
			triggers = append(triggers, t)
		}
	}
	return triggers
}

// ParseTrigger parses one "name (weight)" entry. Weights above 100 are rejected.
func ParseTrigger(entry string) (types.WeightedTrigger, bool) {
	m := triggerPattern.FindStringSubmatch(strings.TrimSpace(entry))
	if m == nil {
		return types.WeightedTrigger{}, false
	}
	weight, err := strconv.Atoi(m[2])
	if err != nil || weight > 100 {
		return types.WeightedTrigger{}, false
	}
	return types.WeightedTrigger{Trigger: m[1], Weight: weight}, true
}

// Frequencies counts occurrences of each entry.
func Frequencies(entries []string) map[string]int {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e]++
	}
	return counts
}

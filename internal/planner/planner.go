// Package planner turns a research request into a fixed-shape query plan
// using the language model as an oracle.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/research-analyzer/internal/llm"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/prompts"
	"github.com/jonathan/research-analyzer/internal/types"
)

// Source records which parse tier produced a plan.
type Source string

const (
	// SourceStructured means the reply parsed as a complete mapping.
	SourceStructured Source = "structured"
	// SourceLines means the line heuristic was used.
	SourceLines Source = "lines"
)

// Planner asks the oracle for search queries.
type Planner struct {
	client llm.Client
}

// New creates a planner backed by the given client.
func New(client llm.Client) *Planner {
	return &Planner{client: client}
}

// Plan always returns a complete plan. Oracle failures are treated as an
// empty reply and end up as padded placeholder queries.
func (p *Planner) Plan(ctx context.Context, req types.ResearchRequest) types.QueryPlan {
	prompt := prompts.Format(prompts.MustGet(prompts.ResearchFile, prompts.KeyPlanQueries), map[string]string{
		"Domain":      req.Domain,
		"Project":     req.Project,
		"Description": req.Description,
	})

	reply, err := p.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		logger.Log.Warnf("query planning call failed, using fallback queries: %v", err)
		reply = ""
	}

	plan, source := Parse(reply, req.Project)
	logger.Log.WithFields(logrus.Fields{
		"source": source,
		"model":  p.client.GetModel(llm.TierLite),
	}).Debug("query plan parsed")
	return plan
}

// Parse converts an oracle reply into a complete plan. It tries a strict
// mapping parse first, then the line heuristic, then pads short categories.
func Parse(reply, project string) (types.QueryPlan, Source) {
	if plan, ok := parseStructured(reply); ok {
		return plan, SourceStructured
	}

	plan := parseLines(reply)
	pad(plan, project)
	return plan, SourceLines
}

// parseStructured accepts JSON or a Python-style literal with single quotes.
// It only succeeds when every category holds exactly five queries.
func parseStructured(reply string) (types.QueryPlan, bool) {
	body := llm.OutermostObject(llm.CleanJSONBlock(reply))
	if body == "" {
		return nil, false
	}

	var raw map[string][]string
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		if err := json.Unmarshal([]byte(singleToDoubleQuotes(body)), &raw); err != nil {
			return nil, false
		}
	}

	plan := make(types.QueryPlan, len(types.Categories))
	for _, c := range types.Categories {
		queries, ok := raw[string(c)]
		if !ok || len(queries) != types.QueriesPerCategory {
			return nil, false
		}
		plan[c] = append([]string(nil), queries...)
	}
	return plan, true
}

// parseLines scans the reply line by line. A line naming a category switches
// the current category; any other line with content is appended to it while
// it still has room.
func parseLines(reply string) types.QueryPlan {
	plan := emptyPlan()
	var current types.Category

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if c, ok := categoryIn(line); ok {
			current = c
			continue
		}
		if current == "" || len(plan[current]) >= types.QueriesPerCategory {
			continue
		}

		query := strings.Trim(line, `- "',`)
		if !hasWord(query) {
			continue
		}
		plan[current] = append(plan[current], query)
	}
	return plan
}

func categoryIn(line string) (types.Category, bool) {
	lower := strings.ToLower(line)
	for _, c := range types.Categories {
		if strings.Contains(lower, string(c)) {
			return c, true
		}
	}
	return "", false
}

// hasWord rejects structural leftovers such as "[", "]," or "}".
func hasWord(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func pad(plan types.QueryPlan, project string) {
	for _, c := range types.Categories {
		for len(plan[c]) < types.QueriesPerCategory {
			plan[c] = append(plan[c], fmt.Sprintf("Default %s query about %s", c, project))
		}
	}
}

func emptyPlan() types.QueryPlan {
	plan := make(types.QueryPlan, len(types.Categories))
	for _, c := range types.Categories {
		plan[c] = make([]string, 0, types.QueriesPerCategory)
	}
	return plan
}

// singleToDoubleQuotes rewrites single-quoted string literals as JSON
// strings. Double quotes inside them are escaped and apostrophes inside
// double-quoted strings are left alone.
func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote rune
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
			if quote == '\'' && r == '\'' {
				// \' is not a valid JSON escape
				b.WriteRune(r)
				continue
			}
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\\' && quote != 0:
			escaped = true
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
			b.WriteRune('"')
		case quote != 0 && r == quote:
			quote = 0
			b.WriteRune('"')
		case quote == '\'' && r == '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

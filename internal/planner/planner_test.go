package planner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/research-analyzer/internal/llm"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

const wellFormed = `{
  "general": ["g1", "g2", "g3", "g4", "g5"],
  "reddit": ["r1", "r2", "r3", "r4", "r5"],
  "quora": ["q1", "q2", "q3", "q4", "q5"],
  "blog": ["b1", "b2", "b3", "b4", "b5"]
}`

func assertComplete(t *testing.T, plan types.QueryPlan) {
	t.Helper()
	require.Len(t, plan, len(types.Categories))
	for _, c := range types.Categories {
		assert.Len(t, plan[c], types.QueriesPerCategory, "category %s", c)
	}
}

func TestPlan_WellFormedReply(t *testing.T) {
	var gotPrompt string
	var gotTier llm.ModelTier
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			gotPrompt = prompt
			gotTier = tier
			return wellFormed, nil
		},
	}

	plan := New(client).Plan(context.Background(), types.ResearchRequest{
		Domain:      "Fintech",
		Project:     "Budget Buddy",
		Description: "personal budgeting app",
	})

	assertComplete(t, plan)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5"}, plan[types.CategoryReddit])
	assert.Contains(t, gotPrompt, "Domain: Fintech")
	assert.Contains(t, gotPrompt, "Project: Budget Buddy")
	assert.Contains(t, gotPrompt, "personal budgeting app")
	assert.Equal(t, llm.TierLite, gotTier)
}

func TestPlan_OracleErrorPads(t *testing.T) {
	client := &MockLLMClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	plan := New(client).Plan(context.Background(), types.ResearchRequest{Domain: "d", Project: "Widget", Description: "x"})

	assertComplete(t, plan)
	assert.Equal(t, "Default general query about Widget", plan[types.CategoryGeneral][0])
	assert.Equal(t, "Default blog query about Widget", plan[types.CategoryBlog][4])
}

func TestPlan_LogsModelAndSource(t *testing.T) {
	prev := logger.Log
	t.Cleanup(func() { logger.Log = prev })

	var buf bytes.Buffer
	logger.Log = logrus.New()
	logger.Log.SetOutput(&buf)
	logger.Log.SetFormatter(&logger.LineFormatter{})
	logger.Log.SetLevel(logrus.DebugLevel)

	client := &MockLLMClient{GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
		return wellFormed, nil
	}}
	New(client).Plan(context.Background(), types.ResearchRequest{Domain: "d", Project: "p", Description: "x"})

	assert.Contains(t, buf.String(), "model=mock-model")
	assert.Contains(t, buf.String(), "query plan parsed")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantSource Source
		check      func(t *testing.T, plan types.QueryPlan)
	}{
		{
			name:       "json",
			reply:      wellFormed,
			wantSource: SourceStructured,
			check: func(t *testing.T, plan types.QueryPlan) {
				assert.Equal(t, "q3", plan[types.CategoryQuora][2])
			},
		},
		{
			name:       "fenced json",
			reply:      "```json\n" + wellFormed + "\n```",
			wantSource: SourceStructured,
		},
		{
			name: "python literal with apostrophes",
			reply: `{'general': ['g1', 'g2', 'g3', 'g4', "what's new"],
 'reddit': ['r1', 'r2', 'r3', 'r4', 'r5'],
 'quora': ['q1', 'q2', 'q3', 'q4', 'say \'hi\''],
 'blog': ['b1', 'b2', 'b3', 'b4', 'b "5"']}`,
			wantSource: SourceStructured,
			check: func(t *testing.T, plan types.QueryPlan) {
				assert.Equal(t, "what's new", plan[types.CategoryGeneral][4])
				assert.Equal(t, "say 'hi'", plan[types.CategoryQuora][4])
				assert.Equal(t, `b "5"`, plan[types.CategoryBlog][4])
			},
		},
		{
			name: "wrong count falls back to lines",
			reply: `{"general": ["g1"], "reddit": ["r1", "r2", "r3", "r4", "r5"],
"quora": ["q1", "q2", "q3", "q4", "q5"], "blog": ["b1", "b2", "b3", "b4", "b5"]}`,
			wantSource: SourceLines,
		},
		{
			name: "missing key falls back to lines",
			reply: `{"general": ["g1", "g2", "g3", "g4", "g5"], "reddit": ["r1", "r2", "r3", "r4", "r5"],
"quora": ["q1", "q2", "q3", "q4", "q5"]}`,
			wantSource: SourceLines,
		},
		{
			name: "headed lists",
			reply: `General queries:
- "best budgeting apps 2024"
- 'how to track spending'

Reddit:
- r/personalfinance budgeting tools
Quora
- Which budgeting app is the best?
Blog posts
- budgeting app review
- zero based budgeting guide`,
			wantSource: SourceLines,
			check: func(t *testing.T, plan types.QueryPlan) {
				assert.Equal(t, "best budgeting apps 2024", plan[types.CategoryGeneral][0])
				assert.Equal(t, "how to track spending", plan[types.CategoryGeneral][1])
				assert.Equal(t, "Default general query about Widget", plan[types.CategoryGeneral][2])
				assert.Equal(t, "r/personalfinance budgeting tools", plan[types.CategoryReddit][0])
				assert.Equal(t, "Which budgeting app is the best?", plan[types.CategoryQuora][0])
				assert.Equal(t, []string{"budgeting app review", "zero based budgeting guide"}, plan[types.CategoryBlog][:2])
			},
		},
		{
			name:       "lines before any heading are ignored",
			reply:      "here you go\nsome query\n",
			wantSource: SourceLines,
			check: func(t *testing.T, plan types.QueryPlan) {
				for _, c := range types.Categories {
					for _, q := range plan[c] {
						assert.True(t, strings.HasPrefix(q, "Default "), q)
					}
				}
			},
		},
		{
			name:       "empty",
			reply:      "",
			wantSource: SourceLines,
		},
		{
			name:       "garbage",
			reply:      "}}}{{{ ''' \"\"\" [[[",
			wantSource: SourceLines,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, source := Parse(tt.reply, "Widget")
			assert.Equal(t, tt.wantSource, source)
			assertComplete(t, plan)
			if tt.check != nil {
				tt.check(t, plan)
			}
		})
	}
}

func TestParseLines_CapsAtFive(t *testing.T) {
	reply := "reddit\n1\n2\n3\n4\n5\n6\n7"
	plan := parseLines(reply)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, plan[types.CategoryReddit])
	assert.Empty(t, plan[types.CategoryGeneral])
}

func TestParseLines_SkipsStructuralLines(t *testing.T) {
	reply := "\"quora\": [\n  \"first\"\n  \"second\"\n]\n}"
	plan := parseLines(reply)
	assert.Equal(t, []string{"first", "second"}, plan[types.CategoryQuora])
}

func TestParseLines_TrimsListPunctuation(t *testing.T) {
	reply := "reddit:\n  \"r1\",\n  'r2',\n- r3,\n\"r4\""
	plan := parseLines(reply)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, plan[types.CategoryReddit])
}

func TestSingleToDoubleQuotes(t *testing.T) {
	assert.Equal(t, `{"a": ["b", "c"]}`, singleToDoubleQuotes(`{'a': ['b', 'c']}`))
	assert.Equal(t, `{"a": "it's"}`, singleToDoubleQuotes(`{"a": "it's"}`))
	assert.Equal(t, `{"a": "say \"x\""}`, singleToDoubleQuotes(`{'a': 'say "x"'}`))
	assert.Equal(t, `{"a": "line\n"}`, singleToDoubleQuotes(`{'a': 'line\n'}`))
}

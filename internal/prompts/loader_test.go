package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get(ResearchFile, KeyPlanQueries)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Generate 20 search queries")
	assert.Contains(t, prompt, "{{.Project}}")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get(ResearchFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestGet_AllResearchKeys(t *testing.T) {
	for _, key := range []string{
		KeyPlanQueries,
		KeySynthesis,
		KeyTriggersCompetitors,
		KeyWordCloud,
		KeyPainPoints,
		KeyRefine,
	} {
		prompt, err := Get(ResearchFile, key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, prompt, key)
	}
}

func TestFormat(t *testing.T) {
	out := Format("Domain: {{.Domain}} / {{.Domain}} / {{.Missing}}", map[string]string{"Domain": "fintech"})
	assert.Equal(t, "Domain: fintech / fintech / {{.Missing}}", out)
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	out := Format("{{.Data}} for {{.Project}}", map[string]string{
		"Data":    "page says {{.Project}}",
		"Project": "Ledger",
	})
	assert.Equal(t, "page says {{.Project}} for Ledger", out)
}

func TestRender_LabelsPresent(t *testing.T) {
	data := map[string]string{"Domain": "d", "Project": "p", "Description": "x"}

	tests := map[string]string{
		KeyTriggersCompetitors: "Effective Triggers: [",
		KeyWordCloud:           "Word Cloud Data: [",
		KeyPainPoints:          "Pain Points: [",
	}
	for key, label := range tests {
		t.Run(key, func(t *testing.T) {
			out, err := Render(key, data)
			require.NoError(t, err)
			assert.Contains(t, out, label)
			assert.NotContains(t, out, "{{.Domain}}")
		})
	}
}

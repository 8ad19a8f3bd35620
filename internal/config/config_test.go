package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TRELLO_KEY", "TRELLO_TOKEN", "TRELLO_BOARD_ID", "TRELLO_BASE_URL", "TOKEN_API",
		"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_JSON", "REQUEST_TIMEOUT", "BOARD_RULES_FILE",
	} {
		t.Setenv(k, "")
	}
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, DefaultTrelloBaseURL, cfg.TrelloBaseURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultRules(), cfg.Rules)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRELLO_KEY", "key")
	t.Setenv("TRELLO_TOKEN", "token")
	t.Setenv("TRELLO_BOARD_ID", "board")
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_JSON", "false")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NoError(t, cfg.RequireUpstream())
	assert.Equal(t, "9999", cfg.Port)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := map[string]string{
		"LOG_JSON":        "talvez",
		"REQUEST_TIMEOUT": "-1s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRequireUpstream(t *testing.T) {
	cfg := &Config{TrelloKey: "k", TrelloToken: "t"}

	err := cfg.RequireUpstream()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingToken))
	assert.Contains(t, err.Error(), "TRELLO_BOARD_ID")
}

func TestLoadRulesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOARD_RULES_FILE", writeRules(t, `
ignored_lists: [l-templates]
terminal_lists: [l-done]
excluded_labels: [lb-private]
time_estimates:
  - {id: v-5, label: "<5 min", seconds: 180}
  - {id: v-15, label: "5-15 min", seconds: 600}
priorities:
  - {id: p-hi, label: Highest}
  - {id: p-lo, label: Lowest}
`))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"l-templates"}, cfg.Rules.IgnoredLists)
	assert.Equal(t, []string{"l-done"}, cfg.Rules.TerminalLists)
	assert.Equal(t, []string{"lb-private"}, cfg.Rules.ExcludedLabels)
	require.Len(t, cfg.Rules.TimeEstimates, 2)
	assert.Equal(t, TimeEstimateRule{ID: "v-5", Label: "<5 min", Seconds: 180}, cfg.Rules.TimeEstimates[0])
	assert.Equal(t, PriorityRule{ID: "p-lo", Label: "Lowest"}, cfg.Rules.Priorities[1])
}

func TestLoadRulesRejectsInvalidTables(t *testing.T) {
	tests := map[string]string{
		"duplicate time id": `
time_estimates:
  - {id: a, label: x, seconds: 1}
  - {id: a, label: y, seconds: 2}
`,
		"negative seconds": `
time_estimates:
  - {id: a, label: x, seconds: -1}
`,
		"empty priority label": `
priorities:
  - {id: a}
`,
		"duplicate priority id": `
priorities:
  - {id: a, label: x}
  - {id: a, label: y}
`,
		"not yaml": "time_estimates: [",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRules(writeRules(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultRulesAreValid(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
}

func TestRequireUpstreamRejectsMalformedBoardID(t *testing.T) {
	cfg := &Config{TrelloKey: "k", TrelloToken: "t", BoardID: "../members/me"}

	err := cfg.RequireUpstream()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestLoadSanitizesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRELLO_KEY", "  abc123\n")
	t.Setenv("TRELLO_TOKEN", "tok\x07en")
	t.Setenv("TRELLO_BOARD_ID", "\tboard1 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.TrelloKey)
	assert.Equal(t, "token", cfg.TrelloToken)
	assert.Equal(t, "board1", cfg.BoardID)
	assert.NoError(t, cfg.RequireUpstream())
}

func TestSanitizeCredential(t *testing.T) {
	tests := map[string]string{
		"abc":          "abc",
		"  abc  ":      "abc",
		"a\x00b":       "ab",
		"a\x07b\x1bc":  "abc",
		"\n\tabc\r\n ": "abc",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeCredential(in), "entrada %q", in)
	}
}

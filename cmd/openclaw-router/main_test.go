package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/metrics"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/router"
)

// runCLI executes the root command with an isolated HOME and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"OPENCLAW_CATALOG_PATH", "OPENCLAW_SKILL_DIRS", "OPENCLAW_AVAILABLE_SKILLS", "OPENCLAW_LOG_LEVEL", "OPENCLAW_LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func decodeAll[T any](t *testing.T, out string) []T {
	t.Helper()
	var items []T
	dec := json.NewDecoder(strings.NewReader(out))
	for {
		var item T
		err := dec.Decode(&item)
		if err == io.EOF {
			return items
		}
		require.NoError(t, err)
		items = append(items, item)
	}
}

func writeSkill(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\nname: " + name + "\ndescription: test skill\n---\n# " + name + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
}

func TestRouteCommand(t *testing.T) {
	out, err := runCLI(t, "", "route", "Schedule", "a", "meeting", "tomorrow", "at", "2pm", "with", "John")
	require.NoError(t, err)

	decisions := decodeAll[router.RoutingDecision](t, out)
	require.Len(t, decisions, 1)
	d := decisions[0]
	assert.Equal(t, router.ActionDispatch, d.Action)
	assert.Equal(t, "calendar_scheduling", d.Intent)
	assert.Equal(t, "ms-graph-calendar", d.Target)
	assert.Equal(t, "2pm", d.Parameters["time"])
	assert.Equal(t, "tomorrow", d.Parameters["date"])
	assert.NotEmpty(t, d.Metadata.RequestID)
}

func TestRouteCommand_NoMessage(t *testing.T) {
	_, err := runCLI(t, "", "route")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message is required")
}

func TestRouteCommand_StdinWithStats(t *testing.T) {
	stdin := "Schedule a meeting tomorrow at 2pm with John\n\nsearch for golang generics\n"
	out, err := runCLI(t, stdin, "route", "--stdin", "--stats", "--user", "alice")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var first, second router.RoutingDecision
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "calendar_scheduling", first.Intent)
	assert.Equal(t, "web_research", second.Intent)

	var stats metrics.RoutingStatistics
	require.NoError(t, dec.Decode(&stats))
	assert.Equal(t, int64(2), stats.TotalRequests)
}

func TestRouteCommand_SkillDiscovery(t *testing.T) {
	skillRoot := t.TempDir()
	writeSkill(t, skillRoot, "google-calendar")

	out, err := runCLI(t, "", "--skill-dir", skillRoot, "route", "Schedule a meeting tomorrow at 2pm with John")
	require.NoError(t, err)

	d := decodeAll[router.RoutingDecision](t, out)[0]
	assert.Equal(t, router.ActionDispatch, d.Action)
	assert.Equal(t, "google-calendar", d.Target)
	assert.True(t, d.Metadata.FallbackUsed)

	out, err = runCLI(t, "", "--skills", "gmail", "route", "Schedule a meeting tomorrow at 2pm with John")
	require.NoError(t, err)
	d = decodeAll[router.RoutingDecision](t, out)[0]
	assert.Equal(t, router.ActionTargetUnavailable, d.Action)
	assert.Equal(t, "ms-graph-calendar", d.RequestedTarget)
	assert.Equal(t, router.GenericTarget, d.FallbackTarget)
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := runCLI(t, "", "analyze", "hello")
	require.NoError(t, err)

	results := decodeAll[router.AnalysisResult](t, out)
	require.Len(t, results, 1)
	assert.Equal(t, router.GenericIntent, results[0].PrimaryIntent)
	assert.True(t, results[0].NoMatch)
	assert.InDelta(t, router.MinConfidence, results[0].Confidence, 1e-9)
	assert.Empty(t, results[0].Parameters)

	_, err = runCLI(t, "", "analyze")
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "messages.txt")
	content := strings.Join([]string{
		"Schedule a meeting tomorrow at 2pm with John",
		"Schedule a call on monday at 10am",
		"search for golang generics",
	}, "\n")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	out, err := runCLI(t, "", "stats", "--file", file, "--top", "1")
	require.NoError(t, err)

	stats := decodeAll[metrics.RoutingStatistics](t, out)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(3), stats[0].TotalRequests)
	require.Len(t, stats[0].TopIntents, 1)
	assert.Equal(t, "calendar_scheduling", stats[0].TopIntents[0].Name)
}

func TestIntentsAndMappingsCommands(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "routing.yaml")

	out, err := runCLI(t, "", "--catalog", catalog, "intents", "add", "travel_booking",
		"--keyword", "flight", "--keyword", "hotel",
		"--pattern", `book (a|the) (flight|hotel)`,
		"--cue", "time_words=tomorrow,weekend")
	require.NoError(t, err)
	assert.Contains(t, out, "intent travel_booking saved")

	out, err = runCLI(t, "", "--catalog", catalog, "mappings", "add", "travel_booking",
		"--primary", "travel-agent", "--fallback", "web-search", "--threshold", "0.3")
	require.NoError(t, err)
	assert.Contains(t, out, "mapping travel_booking -> travel-agent saved")

	raw, err := os.ReadFile(catalog)
	require.NoError(t, err)
	var file router.FileConfig
	require.NoError(t, yaml.Unmarshal(raw, &file))
	require.Contains(t, file.Intents, "travel_booking")
	assert.Equal(t, []string{"tomorrow", "weekend"}, file.Intents["travel_booking"].Cues["time_words"])
	assert.Equal(t, "travel-agent", file.Mappings["travel_booking"].PrimarySkill)

	out, err = runCLI(t, "", "--catalog", catalog, "route", "book a flight to Lisbon tomorrow")
	require.NoError(t, err)
	d := decodeAll[router.RoutingDecision](t, out)[0]
	assert.Equal(t, "travel_booking", d.Intent)
	assert.Equal(t, "travel-agent", d.Target)

	out, err = runCLI(t, "", "--catalog", catalog, "intents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "travel_booking")

	_, err = runCLI(t, "", "--catalog", catalog, "mappings", "add", "unknown_intent", "--primary", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTENT_NOT_FOUND")
}

func TestIntentsAdd_RequiresCatalog(t *testing.T) {
	_, err := runCLI(t, "", "intents", "add", "travel_booking", "--keyword", "flight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--catalog is required")
}

func TestParseCues(t *testing.T) {
	cues, err := parseCues([]string{"platforms=twitter, linkedin", "time_words=today"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"platforms":  {"twitter", "linkedin"},
		"time_words": {"today"},
	}, cues)

	_, err = parseCues([]string{"nope"})
	assert.Error(t, err)
}

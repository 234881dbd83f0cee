package scenario_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/delaneyj/subsmanager/scenario"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() scenario.RunOption {
	return scenario.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGoldenReports(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, file := range files {
		sc, err := scenario.Load(file)
		require.NoError(t, err, file)

		t.Run(sc.Name, func(t *testing.T) {
			res, err := scenario.Run(context.Background(), sc, quiet())
			require.NoError(t, err)
			assert.True(t, res.Passed(), res.Failures)
			g.Assert(t, sc.Name, []byte(res.Report()))
		})
	}
}

func TestParseDefaults(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: defaults
steps:
  - subscribe: {name: a, args: [1, {x: true}]}
`))
	require.NoError(t, err)
	assert.Equal(t, 10, sc.Config.CacheLimit)
	assert.Equal(t, 5, sc.Config.ExpireInMinutes)
	require.Len(t, sc.Steps, 1)

	req, err := sc.Steps[0].Subscribe.Request()
	require.NoError(t, err)
	assert.Equal(t, `["a",1,{"x":true}]`, string(req.Key()))
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "name: x\nbogus: 1\n"},
		{"missing name", "steps: []\n"},
		{"negative limit", "name: x\nconfig: {cache_limit: -1}\n"},
		{"two actions", "name: x\nsteps:\n  - {reset: true, advance: 1s}\n"},
		{"no action", "name: x\nsteps:\n  - {}\n"},
		{"bad duration", "name: x\nsteps:\n  - advance: soon\n"},
		{"negative duration", "name: x\nsteps:\n  - advance: -1s\n"},
		{"empty sub name", "name: x\nsteps:\n  - subscribe: {args: [1]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFailedExpectation(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: wrong
config: {cache_limit: 1}
auto_ready: true
steps:
  - subscribe: {name: a}
  - subscribe: {name: b}
  - expect:
      cached: [{name: a}]
      ready: false
`))
	require.NoError(t, err)

	res, err := scenario.Run(context.Background(), sc, quiet())
	require.NoError(t, err)
	assert.False(t, res.Passed())
	assert.Len(t, res.Failures, 2)
	assert.Contains(t, res.Report(), "failures:")

	last := res.Trace[len(res.Trace)-1]
	assert.Equal(t, "expect", last.Kind)
	assert.Equal(t, "failed", last.Detail)
}

func TestCachedComparesEachKey(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: keys
auto_ready: true
steps:
  - subscribe: {name: feed, args: ["a b"]}
  - subscribe: {name: feed, args: ["c"]}
  - expect:
      cached:
        - {name: feed, args: ["a b"]}
        - {name: feed, args: ["c"]}
  - expect:
      cached:
        - {name: feed, args: ["c"]}
        - {name: feed, args: ["a b"]}
  - expect:
      cached:
        - {name: feed, args: ["a b"]}
`))
	require.NoError(t, err)

	res, err := scenario.Run(context.Background(), sc, quiet())
	require.NoError(t, err)
	require.Len(t, res.Failures, 2)
	assert.Contains(t, res.Failures[0], "step 4")
	assert.Contains(t, res.Failures[1], "step 5")
}

func TestMarkReadyUnknownIsFailure(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: unknown
steps:
  - ready: {name: nope}
`))
	require.NoError(t, err)

	res, err := scenario.Run(context.Background(), sc, quiet())
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "not subscribed")
}

func TestRunCancelled(t *testing.T) {
	sc, err := scenario.Parse([]byte(`
name: cancelled
steps:
  - subscribe: {name: a}
`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = scenario.Run(ctx, sc, quiet())
	assert.ErrorIs(t, err, context.Canceled)
}

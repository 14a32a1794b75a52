package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
	"github.com/Aman-CERP/ragcore/pkg/searcher"
	"github.com/Aman-CERP/ragcore/pkg/version"
)

// cliEnv is a temp workspace with a config file and an index location.
type cliEnv struct {
	dir      string
	config   string
	location string
}

func newCLIEnv(t *testing.T, yaml string) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{
		dir:      dir,
		config:   filepath.Join(dir, ".ragcore.yaml"),
		location: filepath.Join(dir, "index"),
	}
	require.NoError(t, os.WriteFile(env.config, []byte(yaml), 0o644))
	return env
}

func (e *cliEnv) writeCorpus(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *cliEnv) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", e.config, "--index", e.location}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

const petsJSONL = `{"text": "the cat sat on the mat"}
{"text": "dogs chase cats in the park"}
"a bird sang in the tree"
{"content": "the dog slept by the fire"}
`

func TestRootCmd_ShowsHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	for _, sub := range []string{"init", "index", "add", "query", "info", "doctor", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCmd_Outputs(t *testing.T) {
	tests := []struct {
		args  []string
		check func(t *testing.T, out string)
	}{
		{nil, func(t *testing.T, out string) {
			assert.Contains(t, out, "ragcore "+version.Version)
		}},
		{[]string{"--short"}, func(t *testing.T, out string) {
			assert.Equal(t, version.Version, strings.TrimSpace(out))
		}},
		{[]string{"--json"}, func(t *testing.T, out string) {
			var info map[string]string
			require.NoError(t, json.Unmarshal([]byte(out), &info))
			assert.Equal(t, version.Version, info["version"])
		}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetArgs(append([]string{"version"}, tt.args...))

			require.NoError(t, cmd.Execute())
			tt.check(t, buf.String())
		})
	}
}

func TestIndexAndQuery_Lexical(t *testing.T) {
	// Given: a JSONL corpus
	env := newCLIEnv(t, "index:\n  method: lexical\n")
	corpusPath := env.writeCorpus(t, "pets.jsonl", petsJSONL)

	// When: indexing then querying with JSON output
	out, err := env.run("index", corpusPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "4 chunks")

	out, err = env.run("query", "cat", "mat", "-k", "2", "--json")
	require.NoError(t, err, out)

	// Then: the best chunk is the one with both terms
	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "cat mat", resp.Query)
	assert.Equal(t, "lexical", resp.Method)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 0, resp.Results[0].Position)
	assert.Equal(t, "the cat sat on the mat", resp.Results[0].Text)
}

func TestIndexAndQuery_Hybrid(t *testing.T) {
	// Given: the static embedder at a small dimension
	env := newCLIEnv(t, "embeddings:\n  provider: static\n  dimensions: 32\n")
	corpusPath := env.writeCorpus(t, "pets.txt", "the cat sat\nthe dog ran\n\ncats and dogs\n")

	// When: building a hybrid index from a text corpus
	out, err := env.run("index", corpusPath, "--method", "hybrid")
	require.NoError(t, err, out)

	out, err = env.run("query", "cat", "--json", "-k", "10")
	require.NoError(t, err, out)

	// Then: results are clamped to the corpus and scores are fused
	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "hybrid", resp.Method)
	require.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 3)
	for _, r := range resp.Results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0+1e-9)
	}
}

func TestQueryCmd_PlainOutput(t *testing.T) {
	env := newCLIEnv(t, "")
	corpusPath := env.writeCorpus(t, "pets.jsonl", petsJSONL)
	_, err := env.run("index", corpusPath, "-m", "vector-space")
	require.NoError(t, err)

	out, err := env.run("query", "bird")

	require.NoError(t, err)
	assert.Contains(t, out, "1. [")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "a bird sang in the tree")
}

func TestAddCmd_AppendsChunks(t *testing.T) {
	// Given: a lexical index of two chunks
	env := newCLIEnv(t, "")
	first := env.writeCorpus(t, "a.txt", "the cat sat\nthe dog ran\n")
	second := env.writeCorpus(t, "b.txt", "a bird sang\n")
	_, err := env.run("index", first)
	require.NoError(t, err)

	// When: adding a third
	out, err := env.run("add", second)
	require.NoError(t, err, out)

	// Then: the new chunk is queryable at the next position
	out, err = env.run("query", "bird", "--json", "-k", "1")
	require.NoError(t, err)
	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, searcher.Result{Text: "a bird sang", Score: resp.Results[0].Score, Position: 2}, resp.Results[0])
}

func TestInfoCmd_JSON(t *testing.T) {
	env := newCLIEnv(t, "")
	corpusPath := env.writeCorpus(t, "pets.jsonl", petsJSONL)
	_, err := env.run("index", corpusPath)
	require.NoError(t, err)

	out, err := env.run("info", "--json")

	require.NoError(t, err, out)
	var info searcher.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "lexical", string(info.Method))
	assert.Equal(t, 4, info.Documents)
	assert.Equal(t, 1, info.SchemaVersion)
}

func TestCommands_MissingIndex(t *testing.T) {
	env := newCLIEnv(t, "")
	for _, args := range [][]string{{"query", "cat"}, {"info"}} {
		t.Run(args[0], func(t *testing.T) {
			_, err := env.run(args...)

			require.Error(t, err)
			assert.ErrorIs(t, err, ragerrors.ErrIndexNotFound)
		})
	}
}

func TestIndexCmd_UnsupportedMethod(t *testing.T) {
	env := newCLIEnv(t, "")
	corpusPath := env.writeCorpus(t, "pets.jsonl", petsJSONL)

	_, err := env.run("index", corpusPath, "--method", "semantic")

	assert.ErrorIs(t, err, ragerrors.ErrUnsupportedMethod)
	assert.NoFileExists(t, filepath.Join(env.location, "artifact.json"))
}

func TestIndexCmd_SQLFlagNeedsSQLite(t *testing.T) {
	env := newCLIEnv(t, "")
	corpusPath := env.writeCorpus(t, "pets.txt", "a\nb\n")

	_, err := env.run("index", corpusPath, "--sql", "SELECT 1")

	assert.Error(t, err)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t, "fusion:\n  alpha: 2\n")

	_, err := env.run("info")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha")
}

func TestDoctorCmd_JSON(t *testing.T) {
	// Given: an index built with the static embedder
	env := newCLIEnv(t, "embeddings:\n  dimensions: 16\n")
	corpusPath := env.writeCorpus(t, "pets.jsonl", petsJSONL)
	_, err := env.run("index", corpusPath)
	require.NoError(t, err)

	// When: running diagnostics
	out, err := env.run("doctor", "--json")

	// Then: every check passes
	require.NoError(t, err, out)
	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ready", report.Status)
	require.Len(t, report.Checks, 4)
	for _, c := range report.Checks {
		assert.Equal(t, "pass", c.Status, c.Name)
	}
}

func TestDoctorCmd_CorruptIndexFails(t *testing.T) {
	env := newCLIEnv(t, "")
	require.NoError(t, os.MkdirAll(env.location, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.location, "artifact.json"), []byte("{"), 0o644))

	out, err := env.run("doctor", "--no-embedder")

	assert.ErrorIs(t, err, errDoctorFailed)
	assert.Contains(t, out, "[FAIL] index")
}

func TestRootCmd_WritesProfiles(t *testing.T) {
	env := newCLIEnv(t, "")
	corpusPath := env.writeCorpus(t, "pets.jsonl", petsJSONL)
	cpu := filepath.Join(env.dir, "cpu.prof")
	heap := filepath.Join(env.dir, "heap.prof")

	_, err := env.run("index", corpusPath, "--cpuprofile", cpu, "--memprofile", heap)

	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, heap)
}

func TestInitCmd_WritesTemplateOnce(t *testing.T) {
	// Given: an empty directory
	dir := t.TempDir()
	run := func(args ...string) string {
		cmd := NewRootCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetArgs(append([]string{"init", dir}, args...))
		require.NoError(t, cmd.Execute())
		return buf.String()
	}
	path := filepath.Join(dir, ".ragcore.yaml")

	// When: running init twice
	run()
	require.NoError(t, os.WriteFile(path, []byte("index:\n  method: hybrid\n"), 0o644))
	out := run()

	// Then: the second run keeps the edited file until --force
	assert.Contains(t, out, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "method: hybrid")

	run("--force")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vector_backend: flat")
}

func TestQueryCmd_StdinStream(t *testing.T) {
	// Given: a lexical index
	env := newCLIEnv(t, "search:\n  engine_cache_size: 2\n")
	corpusPath := env.writeCorpus(t, "pets.jsonl", petsJSONL)
	_, err := env.run("index", corpusPath)
	require.NoError(t, err)

	// When: piping three lines, one blank
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("bird\n\nfire\n"))
	cmd.SetArgs([]string{"--config", env.config, "--index", env.location, "query", "-", "--json", "-k", "1"})
	require.NoError(t, cmd.Execute())

	// Then: one JSON line per non-blank query
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first, second queryResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, 2, first.Results[0].Position)
	assert.Equal(t, "fire", second.Query)
	assert.Equal(t, 3, second.Results[0].Position)
}

package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	algebraDir   = "../content/testdata/algebra"
	cyclicDir    = "../content/testdata/cyclic"
	scenariosDir = "../harness/testdata/scenarios"
)

// envelope is CLIResponse with the payload left raw for typed decoding.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// executeJSON runs the root command with --format json and decodes the
// envelope, and its data into data when data is non-nil.
func executeJSON(t *testing.T, data any, args ...string) (envelope, error) {
	t.Helper()
	out, err := execute(t, append([]string{"--format", "json"}, args...)...)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env, err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "studygate.db")
}

// loadedDB returns a database with the algebra curriculum loaded.
func loadedDB(t *testing.T) string {
	t.Helper()
	db := tempDB(t)
	_, err := execute(t, "--db", db, "load", algebraDir)
	require.NoError(t, err)
	return db
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

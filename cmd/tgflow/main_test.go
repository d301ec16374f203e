package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tgflow/internal/config"
)

const schemaYAML = `
dialogs:
  - id: start
    text: Hello
    inline_buttons:
      - - text: Next
          goto: next
  - id: next
    text: Done
    command: next
    description: Jump to the end
`

// execute runs the root command with fresh flag values.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeSchema(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "", "validate", writeSchema(t, schemaYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is valid!")
	assert.Contains(t, out, "2 dialogs, 1 commands")
}

func TestValidate_ReportsIssues(t *testing.T) {
	path := writeSchema(t, `
dialogs:
  - id: start
    inline_buttons:
      - - text: Go
          goto: nowhere
          action: custom_thing
`)
	_, err := execute(t, "", "validate", "--flows", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom_thing")
}

func TestValidate_MarkdownDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "start.md"), []byte("---\nid: start\n---\nHi from markdown"), 0o644))

	out, err := execute(t, "", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 dialogs")
}

func TestValidate_UnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := execute(t, "", "validate", path)
	assert.ErrorContains(t, err, "unsupported schema file")
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "", "graph", writeSchema(t, schemaYAML), "--highlight", "next")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `start -- "Next" --> next`)
	assert.Contains(t, out, `cmd_next -.-> next`)
	assert.Contains(t, out, "class next current;")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tgflow version")
}

func TestSimulate(t *testing.T) {
	out, err := execute(t, "1\nexit\n", "simulate", writeSchema(t, schemaYAML))
	require.NoError(t, err)

	assert.Contains(t, out, "[#1] Hello")
	assert.Contains(t, out, "[Next]")
	assert.Contains(t, out, "[#1 edited] Done")
	assert.NotContains(t, out, "> ", "stdin is not a terminal so no prompts are shown")
}

func TestRun_RequiresToken(t *testing.T) {
	t.Setenv("TGFLOW_TOKEN", "")
	_, err := execute(t, "", "run", writeSchema(t, schemaYAML))
	assert.ErrorContains(t, err, "bot_token is required")
}

func TestWatchValidate(t *testing.T) {
	dir := t.TempDir()
	start := filepath.Join(dir, "start.md")
	require.NoError(t, os.WriteFile(start, []byte("---\nid: start\n---\nHi"), 0o644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Flows.Path = dir

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchValidate(ctx, cfg, out) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "1 dialogs") }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

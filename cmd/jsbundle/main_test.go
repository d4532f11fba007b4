package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.js"),
		[]byte("export const x = 2;\nexport default 1;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.js"),
		[]byte("import d, {x} from './a.js';\nconsole.log(d + x);\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundler.config.yml"),
		[]byte("entry: src/main.js\noutput: dist/bundle.js\nplugins:\n  - name: banner\n    options:\n      text: \"/* hello */\"\n"), 0o644))

	t.Chdir(dir)

	_, err := execute(t, "bundler.config.yml")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "dist", "bundle.js"))
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "/* hello */\n"))
	assert.Contains(t, text, `"./src/main.js": function (module, exports, require) {`)
	assert.Contains(t, text, `"./src/a.js": function (module, exports, require) {`)
	assert.True(t, strings.HasSuffix(text, "})(\"./src/main.js\");\n"))
}

func TestRun_DefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// No bundler.config.yml present: the default path fails to load.
	_, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundler.config.yml")
}

func TestRun_UnknownPlugin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.js"), []byte("console.log(1);\n"), 0o644))
	cfg := filepath.Join(dir, "cfg.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("entry: main.js\nplugins:\n  - name: minify\n"), 0o644))

	t.Chdir(dir)

	_, err := execute(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown plugin")
}

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

	mdwerror "github.com/msto63/koi/foundation/core/error"
	"github.com/msto63/koi/foundation/koi/command"
	"github.com/msto63/koi/pkg/core/version"
)

const scene = `#character Alice "Hello, world!"
Some narration.
#background color(red)
#
#end
`

// testEnv writes a config whose archive lives in a temp dir
func testEnv(t *testing.T) (dir, cfgPath string) {
	t.Helper()

	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "koi.toml")
	content := "[store]\npath = \"" + filepath.ToSlash(filepath.Join(dir, "runs.db")) + "\"\n\n[log]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return dir, cfgPath
}

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err = execute(root, a)
	return out.String(), errOut.String(), err
}

type recordingCloser struct{ closed int }

func (c *recordingCloser) Close() error {
	c.closed++
	return nil
}

func TestExecute_ClosesLogOnFailure(t *testing.T) {
	dir, cfg := testEnv(t)
	logPath := filepath.Join(dir, "koi.log")
	content, err := os.ReadFile(cfg)
	require.NoError(t, err)
	content = append(content, []byte("file = \""+filepath.ToSlash(logPath)+"\"\n")...)
	require.NoError(t, os.WriteFile(cfg, content, 0o644))

	root, a := newRootCmd()
	root.SetArgs([]string{"--config", cfg, "parse"})
	root.SetIn(strings.NewReader(scene))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err = execute(root, a)
	assert.ErrorIs(t, err, errParseErrors)
	assert.Nil(t, a.closer, "log file left open")
	assert.FileExists(t, logPath)

	// a closer set by setup is closed exactly once
	rc := &recordingCloser{}
	a.closer = rc
	require.NoError(t, a.close())
	require.NoError(t, a.close())
	assert.Equal(t, 1, rc.closed)
}

func TestParse(t *testing.T) {
	_, cfg := testEnv(t)

	out, stderr, err := run(t, scene, "--config", cfg, "parse")
	require.ErrorIs(t, err, errParseErrors)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, `#character Alice "Hello, world!"`, lines[0])
	assert.Equal(t, "#background color(red)", lines[1])
	assert.Contains(t, lines[2], "<stdin>: parse error at line 4")
	assert.Contains(t, out, "#end")
	assert.NotContains(t, out, "narration")
	assert.Contains(t, stderr, "3 commands, 1 errors")
}

func TestParse_CleanFileWithThreshold(t *testing.T) {
	dir, cfg := testEnv(t)
	path := filepath.Join(dir, "doc.koi")
	require.NoError(t, os.WriteFile(path, []byte("#just a comment\n##cmd x\n"), 0o644))

	out, _, err := run(t, "", "--config", cfg, "--threshold", "2", "parse", path)
	require.NoError(t, err)
	assert.Equal(t, "#cmd x\n", out)
}

func TestParse_InvalidThreshold(t *testing.T) {
	_, cfg := testEnv(t)

	_, _, err := run(t, scene, "--config", cfg, "--threshold", "-1", "parse")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errParseErrors)
}

func TestToJSONAndBack(t *testing.T) {
	dir, cfg := testEnv(t)
	jsonPath := filepath.Join(dir, "scene.json")

	_, _, err := run(t, scene, "--config", cfg, "to-json", "-o", jsonPath, "--pretty")
	require.NoError(t, err)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Commands, 3)
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, 4, doc.Errors[0].Line)
	assert.Equal(t, "command", doc.Errors[0].Kind)
	assert.Equal(t, 3, doc.Stats.Commands)

	out, _, err := run(t, "", "--config", cfg, "from-json", "-i", jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "#character Alice \"Hello, world!\"\n#background color(red)\n#end\n", out)
}

func TestToJSON_Strict(t *testing.T) {
	_, cfg := testEnv(t)

	_, _, err := run(t, scene, "--config", cfg, "to-json", "--strict")
	assert.ErrorIs(t, err, errParseErrors)
}

func TestFromJSON_BareArray(t *testing.T) {
	_, cfg := testEnv(t)

	cmds := []*command.Command{
		command.New("wait", command.Basic("1.5")),
		command.New("say", command.Composite("to", "bob"), command.Basic(`"hi"`)),
	}
	data, err := json.Marshal(cmds)
	require.NoError(t, err)

	out, _, err := run(t, string(data), "--config", cfg, "--threshold", "2", "from-json")
	require.NoError(t, err)
	assert.Equal(t, "##wait 1.5\n##say to(bob) \"hi\"\n", out)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, cfg := testEnv(t)

	_, _, err := run(t, "{not json", "--config", cfg, "from-json")
	assert.Error(t, err)
}

func TestFromJSON_NullCommand(t *testing.T) {
	_, cfg := testEnv(t)

	for _, input := range []string{"[null]", `{"commands":[{"name":"a","params":[]},null]}`} {
		t.Run(input, func(t *testing.T) {
			out, _, err := run(t, input, "--config", cfg, "from-json")
			require.Error(t, err)
			assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput))
			assert.Empty(t, out)
		})
	}
}

func TestArchiveLifecycle(t *testing.T) {
	_, cfg := testEnv(t)

	out, _, err := run(t, scene, "--config", cfg, "archive", "save", "--source", "scene.koi")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, _, err = run(t, "", "--config", cfg, "archive", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "scene.koi")

	out, stderr, err := run(t, "", "--config", cfg, "archive", "show", id)
	require.NoError(t, err)
	assert.Equal(t, "#character Alice \"Hello, world!\"\n#background color(red)\n#end\n", out)
	assert.Contains(t, stderr, "line 4")

	out, _, err = run(t, "", "--config", cfg, "archive", "show", "--json", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"source": "scene.koi"`)

	_, _, err = run(t, "", "--config", cfg, "archive", "delete", id)
	require.NoError(t, err)

	_, _, err = run(t, "", "--config", cfg, "archive", "show", id)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	_, cfg := testEnv(t)

	out, _, err := run(t, "", "--config", cfg, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "koi "+version.Version)

	out, _, err = run(t, "", "--config", cfg, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version":"`+version.Version+`"`)
}

func TestWatch_RequiresFiles(t *testing.T) {
	_, cfg := testEnv(t)

	_, _, err := run(t, "", "--config", cfg, "watch")
	assert.Error(t, err)
}

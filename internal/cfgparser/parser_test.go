package cfgparser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
)

func TestVariableExpansionEnvPrecedence(t *testing.T) {
	t.Setenv("HOME", "/real")

	p := cfgparser.New(cfgparser.Options{})
	ok := p.ParseString("test", `
$x = "outer"
$_HOME = "/fake"
a = "$x/${x}/$_HOME"
`, false)
	require.True(t, ok)

	a := p.Root().Find("a")
	require.NotNil(t, a)
	assert.Equal(t, "outer/outer//fake", a.Value)
}

func TestIncludeResolvesAgainstSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inner.cfg"), []byte(`k = "v"`), 0o644))
	top := filepath.Join(dir, "top.cfg")
	require.NoError(t, os.WriteFile(top, []byte(`INCLUDE = "inner.cfg"`), 0o644))

	p := cfgparser.New(cfgparser.Options{})
	ok := p.ParseFile(top, false)
	require.True(t, ok)

	k := p.Root().Find("k")
	require.NotNil(t, k)
	assert.Equal(t, "v", k.Value)
}

func TestIncludeMissingWarnsAndContinues(t *testing.T) {
	dir := t.TempDir()
	top := filepath.Join(dir, "top.cfg")
	require.NoError(t, os.WriteFile(top, []byte(`INCLUDE = "inner.cfg"`), 0o644))

	var diags []cfgparser.Diagnostic
	p := cfgparser.New(cfgparser.Options{
		Diagnostics: func(d cfgparser.Diagnostic) { diags = append(diags, d) },
	})
	ok := p.ParseFile(top, false)

	require.True(t, ok)
	assert.NotEmpty(t, diags)
	assert.Nil(t, p.Root().Find("k"))
}

func TestTemplateDefineAndExpand(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	ok := p.ParseString("test", `
Define = "T" {
	k = "v"
}
S {
	@T
}
`, false)
	require.True(t, ok)

	s := p.Root().Find("S")
	require.NotNil(t, s)
	k := s.Find("k")
	require.NotNil(t, k)
	assert.Equal(t, "v", k.Value)

	// A second expansion of the same template, and mutating the first
	// expansion's copy, must not reach the stored template or any
	// other expansion of it.
	require.True(t, p.ParseString("test", `S2 { @T }`, false))
	k.Value = "mutated"

	k2 := p.Root().Find("S2").Find("k")
	require.NotNil(t, k2)
	assert.Equal(t, "v", k2.Value)
}

func TestOverwriteMergesSectionsByLabel(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseString("first", `
S = "label" {
	a = "1"
}
`, true))
	require.True(t, p.ParseString("second", `
S = "label" {
	b = "2"
}
`, true))

	sections := p.Root().FindAll("S")
	require.Len(t, sections, 1)
	assert.NotNil(t, sections[0].Find("a"))
	assert.NotNil(t, sections[0].Find("b"))
}

func TestOverwriteAppendsSectionsWithDifferentLabels(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseString("first", `S = "one" { a = "1" }`, true))
	require.True(t, p.ParseString("second", `S = "two" { b = "2" }`, true))

	sections := p.Root().FindAll("S")
	assert.Len(t, sections, 2)
}

func TestLeafOverwriteReplacesValue(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseString("first", `k = "1"`, true))
	require.True(t, p.ParseString("second", `k = "2"`, true))

	assert.Equal(t, "2", p.Root().Find("k").Value)
}

func TestFindIsCaseInsensitive(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseString("test", `Frame = "x" { Focused = "1" }`, false))

	frame := p.Root().Find("frame")
	require.NotNil(t, frame)
	assert.NotNil(t, frame.Find("FOCUSED"))
}

func TestCommentsAreIgnored(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	ok := p.ParseString("test", `
# line comment
a = "1" // trailing comment
/* block
   comment */
b = "2"
`, false)
	require.True(t, ok)
	assert.Equal(t, "1", p.Root().Find("a").Value)
	assert.Equal(t, "2", p.Root().Find("b").Value)
}

func TestEarlyEndKeyStopsWholeParse(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{EarlyEndKey: "End"})
	ok := p.ParseString("test", `
a = "1"
End { }
b = "2"
`, false)
	require.True(t, ok)
	assert.NotNil(t, p.Root().Find("a"))
	assert.Nil(t, p.Root().Find("b"))
}

func TestCommandDirectiveParsesChildOutput(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	ok := p.ParseString("test", `COMMAND = "printf 'k = \"v\"\\n'"`, false)
	require.True(t, ok)

	k := p.Root().Find("k")
	require.NotNil(t, k)
	assert.Equal(t, "v", k.Value)
}

func TestCommandDirectiveSurvivesFailingChild(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	ok := p.ParseString("test", `
COMMAND = "exit 1"
after = "1"
`, false)
	require.True(t, ok)
	assert.NotNil(t, p.Root().Find("after"))
}

func TestLoadedFilesTracksIncludes(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "inner.cfg")
	require.NoError(t, os.WriteFile(inner, []byte(`k = "v"`), 0o644))
	top := filepath.Join(dir, "top.cfg")
	require.NoError(t, os.WriteFile(top, []byte(`INCLUDE = "inner.cfg"`), 0o644))

	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseFile(top, false))

	paths := p.LoadedFiles().Paths()
	assert.Contains(t, paths, top)
	assert.Contains(t, paths, inner)
	assert.False(t, p.LoadedFiles().RequireReload())
}

package keyword

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorDefaults(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(DefaultRules())

	fixtures := []struct {
		text string
		out  bool
	}{
		{text: "DayZ Coder", out: true},
		{text: "fivem enjoyer and dayz fan", out: true},
		{text: "fivem enjoyer", out: false},
		{text: "hello world", out: false},
		{text: "", out: false},
		// substring, not whole-word
		{text: "xXc0derXx_supercoder", out: true},
		{text: "ARMA and DAYZ", out: true},
		{text: "Rust plugins for sale", out: true},
		{text: "rustacean", out: false},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, d.Detect(fix.text), fix.text)
	}
}

func TestDetectorMatch(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(DefaultRules())

	m, ok := d.Match("DayZ Coder")
	assert.True(ok)
	assert.Equal("keyword", m.Rule)
	assert.Equal([]string{"coder"}, m.Markers)

	m, ok = d.Match("fivem enjoyer and dayz fan")
	assert.True(ok)
	assert.Equal("co-occurrence", m.Rule)
	assert.Equal([]string{"fivem", "dayz"}, m.Markers)

	_, ok = d.Match("fivem enjoyer")
	assert.False(ok)
}

func TestDetectorFolding(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(Rules{
		Keywords:     []string{"Straße"},
		CoOccurrence: [][]string{{"FiveM", "DÅYZ"}},
	})

	assert.True(d.Detect("STRASSE"))
	assert.True(d.Detect("fivem / dayz"))
	assert.True(d.Detect("FİVEM dåyz"))
	assert.False(d.Detect("fivem"))
}

func TestDetectorEmptyRules(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(Rules{
		Keywords:     []string{"", "  "},
		CoOccurrence: [][]string{{}, {""}},
	})
	assert.False(d.Detect("anything at all"))
	assert.False(d.Detect(""))
}

func TestFoldText(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  string
	}{
		{text: "", out: ""},
		{text: "DayZ Coder", out: "dayz coder"},
		{text: "Gdańsk", out: "gdansk"},
		{text: "Hello, โลก!", out: "hello, โลก!"},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, FoldText(fix.text))
	}

	assert.Equal("display name handle", FoldFields(" Display Name ", "", "HANDLE"))
}

func TestLoadRulesFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	dir := t.TempDir()

	p := filepath.Join(dir, "rules.yaml")
	require.NoError(os.WriteFile(p, []byte(`
keywords:
  - coder
  - ""
co_occurrence:
  - [fivem, dayz]
  - [rust, " ", plugins]
`), 0o644))

	r, err := LoadRulesFile(p)
	require.NoError(err)
	assert.Equal([]string{"coder"}, r.Keywords)
	assert.Equal([][]string{{"fivem", "dayz"}, {"rust", "plugins"}}, r.CoOccurrence)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(os.WriteFile(bad, []byte("co_occurrence:\n  - []\n"), 0o644))
	_, err = LoadRulesFile(bad)
	assert.Error(err)

	_, err = LoadRulesFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(err)
}

package rules

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"foo.PY", Python},
		{"foo.py", Python},
		{"foo", Text},
		{"foo.unknown", Text},
		{"notes.txt", Text},
		{"Main.kt", Kotlin},
		{"main.c", C},
		{"main.CPP", Cpp},
		{"App.java", Java},
		{"index.js", JavaScript},
		{"dir.v2/readme", Text},
		{"", Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, LanguageFor(tt.name))
		})
	}
}

func TestLanguages_DefaultFirstAndCopied(t *testing.T) {
	langs := Languages()
	require.Equal(t, Text, langs[0])
	require.Len(t, langs, 7)

	langs[0] = "mutated"
	require.Equal(t, Text, Languages()[0])
}

func TestExtension(t *testing.T) {
	require.Equal(t, "cpp", Extension(Cpp))
	require.Equal(t, "py", Extension(Python))
	require.Equal(t, "txt", Extension("Cobol"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Default()))
	require.Error(t, Validate(RuleSet{Numbers: `(`}))
	require.Error(t, Validate(RuleSet{Keywords: []string{"if", " "}}))
	require.Error(t, Validate(RuleSet{Operators: []string{""}}))
}

func TestStore_BuiltinsAllLoadStrictly(t *testing.T) {
	store := NewStore()
	for _, lang := range Languages() {
		rs, err := store.Check(lang)
		require.NoError(t, err, lang)
		require.Equal(t, lang, rs.Language)
	}
}

func TestStore_LoadKnownLanguage(t *testing.T) {
	rs := NewStore().Load(Python)

	require.Equal(t, Python, rs.Language)
	require.Contains(t, rs.Keywords, "def")
	require.Contains(t, rs.Operators, "**")
	require.Equal(t, `#.*$`, rs.Comments)
}

func TestStore_UnknownLanguageFallsBack(t *testing.T) {
	require.Equal(t, Default(), NewStore().Load("Cobol"))
}

func TestStore_MalformedDefinitionFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"c.yaml":      {Data: []byte("keyword: [int\n  broken")},
		"python.yaml": {Data: []byte("numbers: '(unclosed'\n")},
	}
	store := NewStore(WithBuiltinFS(fsys))

	require.Equal(t, Default(), store.Load(C))
	require.Equal(t, Default(), store.Load(Python))
	require.Equal(t, Default(), store.Load(Java), "missing file falls back too")

	_, err := store.Check(Python)
	require.Error(t, err)
}

func TestStore_OverrideWinsAndReload(t *testing.T) {
	override := fstest.MapFS{
		"c.yaml": {Data: []byte("keyword: [only]\n")},
	}
	store := NewStore(WithOverrideFS(override))

	rs := store.Load(C)
	require.Equal(t, []string{"only"}, rs.Keywords)
	require.Empty(t, rs.Operators)

	// Other languages still come from the embedded set.
	require.Contains(t, store.Load(Java).Keywords, "class")

	override["c.yaml"] = &fstest.MapFile{Data: []byte("keyword: [changed]\n")}
	require.Equal(t, []string{"only"}, store.Load(C).Keywords, "cached until reload")

	store.Reload()
	require.Equal(t, []string{"changed"}, store.Load(C).Keywords)
}

func TestParse_PreservesOperatorOrder(t *testing.T) {
	rs, err := Parse([]byte("operator: ['==', '=', '!=']\nfunctions: '\\b(\\w+)\\('\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"==", "=", "!="}, rs.Operators)
	require.Equal(t, `\b(\w+)\(`, rs.Functions)
}

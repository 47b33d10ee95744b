// Package rules loads the declarative per-language syntax rules that drive
// highlighting, and maps file names to language tags.
package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Language tags.
const (
	Text       = "Text"
	Kotlin     = "Kotlin"
	C          = "C"
	Cpp        = "C++"
	Python     = "Python"
	Java       = "Java"
	JavaScript = "JavaScript"
)

var languages = []string{Text, Kotlin, C, Cpp, Python, Java, JavaScript}

var extensionToLanguage = map[string]string{
	"txt":  Text,
	"kt":   Kotlin,
	"c":    C,
	"cpp":  Cpp,
	"py":   Python,
	"java": Java,
	"js":   JavaScript,
}

// slugs name the rule file for each language.
var slugs = map[string]string{
	Text:       "text",
	Kotlin:     "kotlin",
	C:          "c",
	Cpp:        "cpp",
	Python:     "python",
	Java:       "java",
	JavaScript: "javascript",
}

// Languages returns the supported language tags, default first.
func Languages() []string {
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}

// IsSupported reports whether language has a rule definition.
func IsSupported(language string) bool {
	_, ok := slugs[language]
	return ok
}

// LanguageFor maps a file name to a language tag by its extension,
// case-insensitively. Unknown or missing extensions map to Text.
func LanguageFor(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return Text
}

// Extension returns the canonical file extension for language, without the dot.
func Extension(language string) string {
	for ext, lang := range extensionToLanguage {
		if lang == language {
			return ext
		}
	}
	return "txt"
}

// RuleSet is one language's highlighting rules. Treat it as immutable.
//
// Keywords are matched as whole words. Operators are matched literally in the
// order given, so longer operators should come before their prefixes. The
// remaining fields are multiline regular expressions over the raw text; an
// empty string means the category is not highlighted. A span always covers
// the whole match; capture groups do not narrow it.
type RuleSet struct {
	Language  string   `yaml:"-"`
	Keywords  []string `yaml:"keyword"`
	Operators []string `yaml:"operator"`
	Numbers   string   `yaml:"numbers"`
	Strings   string   `yaml:"strings"`
	Comments  string   `yaml:"comments"`
	Functions string   `yaml:"functions"`
}

// Default returns the fallback rule set used for plain text and whenever a
// language definition cannot be loaded.
func Default() RuleSet {
	return RuleSet{
		Language: Text,
		Numbers:  `\b\d+(?:\.\d+)?\b`,
	}
}

// Validate checks that every pattern in rs compiles.
func Validate(rs RuleSet) error {
	patterns := []struct {
		name    string
		pattern string
	}{
		{"numbers", rs.Numbers},
		{"strings", rs.Strings},
		{"comments", rs.Comments},
		{"functions", rs.Functions},
	}
	for _, p := range patterns {
		if p.pattern == "" {
			continue
		}
		if _, err := regexp.Compile("(?m)" + p.pattern); err != nil {
			return fmt.Errorf("%s pattern: %w", p.name, err)
		}
	}
	for i, kw := range rs.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keyword %d is blank", i)
		}
	}
	for i, op := range rs.Operators {
		if op == "" {
			return fmt.Errorf("operator %d is empty", i)
		}
	}
	return nil
}

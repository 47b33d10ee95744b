package rules

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/codepad/internal/cachemanager"
	"github.com/zjrosen/codepad/internal/log"
)

//go:embed defs/*.yaml
var builtin embed.FS

// BuiltinFS returns the embedded rule definitions, one <slug>.yaml per language.
func BuiltinFS() fs.FS {
	sub, err := fs.Sub(builtin, "defs")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return sub
}

// Store loads rule sets by language tag and memoizes them.
// Load never fails: broken or missing definitions fall back to Default().
type Store struct {
	builtin  fs.FS
	override fs.FS
	cache    *cachemanager.ReadThroughCache[string, RuleSet, string]
}

// Option configures a Store.
type Option func(*Store)

// WithOverrideDir makes the store prefer <dir>/<slug>.yaml over the embedded
// definition. An empty dir is ignored.
func WithOverrideDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.override = os.DirFS(dir)
		}
	}
}

// WithOverrideFS is WithOverrideDir for an arbitrary filesystem.
func WithOverrideFS(fsys fs.FS) Option {
	return func(s *Store) { s.override = fsys }
}

// WithBuiltinFS replaces the embedded definitions.
func WithBuiltinFS(fsys fs.FS) Option {
	return func(s *Store) { s.builtin = fsys }
}

// NewStore creates a Store over the embedded definitions.
func NewStore(opts ...Option) *Store {
	s := &Store{builtin: BuiltinFS()}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cachemanager.NewReadThroughCache[string, RuleSet, string](
		cachemanager.NewInMemoryCacheManager[string, RuleSet]("rules", cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval),
		s.loadSoft,
		false,
	)
	return s
}

// Load returns the rule set for language.
func (s *Store) Load(language string) RuleSet {
	rs, err := s.cache.Get(context.Background(), language, language, cachemanager.NoExpiration)
	if err != nil {
		return Default()
	}
	return rs
}

// Reload drops every memoized rule set so the next Load rereads its file.
func (s *Store) Reload() {
	s.cache.Invalidate(context.Background())
	log.Info(log.CatRules, "rule cache invalidated")
}

// Check loads language strictly, returning the reason it would fall back.
func (s *Store) Check(language string) (RuleSet, error) {
	return s.read(language)
}

func (s *Store) loadSoft(_ context.Context, language string) (RuleSet, error) {
	rs, err := s.read(language)
	if err != nil {
		log.Warn(log.CatRules, "using default rules", "language", language, "error", err)
		return Default(), nil
	}
	log.Debug(log.CatRules, "rules loaded", "language", language,
		"keywords", len(rs.Keywords), "operators", len(rs.Operators))
	return rs, nil
}

var errUnknownLanguage = errors.New("unknown language")

func (s *Store) read(language string) (RuleSet, error) {
	slug, ok := slugs[language]
	if !ok {
		return RuleSet{}, fmt.Errorf("%w: %q", errUnknownLanguage, language)
	}
	name := slug + ".yaml"

	data, err := s.readFile(name)
	if err != nil {
		return RuleSet{}, err
	}

	rs, err := Parse(data)
	if err != nil {
		return RuleSet{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	rs.Language = language
	if err := Validate(rs); err != nil {
		return RuleSet{}, fmt.Errorf("validating %s: %w", name, err)
	}
	return rs, nil
}

func (s *Store) readFile(name string) ([]byte, error) {
	if s.override != nil {
		data, err := fs.ReadFile(s.override, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading override %s: %w", name, err)
		}
	}
	data, err := fs.ReadFile(s.builtin, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Parse decodes one rule definition document.
func Parse(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

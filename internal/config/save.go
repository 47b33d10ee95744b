package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveThemeColor sets theme.colors.<category> in the config file, keeping
// comments and the rest of the file intact.
func SaveThemeColor(configPath, category, color string) error {
	if err := ValidateTheme(ThemeConfig{Colors: map[string]string{category: color}}); err != nil {
		return err
	}
	return setValue(configPath, []string{"theme", "colors", category}, scalar(color))
}

// SaveRulesDir sets rules.dir in the config file.
func SaveRulesDir(configPath, dir string) error {
	return setValue(configPath, []string{"rules", "dir"}, scalar(dir))
}

// SaveCodeDir sets code_dir in the config file.
func SaveCodeDir(configPath, dir string) error {
	return setValue(configPath, []string{"code_dir"}, scalar(dir))
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// setValue replaces or creates the node at keys, creating intermediate
// mappings as needed, and writes the file atomically.
func setValue(configPath string, keys []string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("parsing config: unexpected document structure")
	}

	node := doc.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("parsing config: top level is not a mapping")
	}
	for i, key := range keys {
		last := i == len(keys)-1
		child := lookup(node, key)
		switch {
		case last && child != nil:
			*child = *withComments(value, child)
		case last:
			node.Content = append(node.Content, scalar(key), value)
		case child == nil:
			child = &yaml.Node{Kind: yaml.MappingNode}
			node.Content = append(node.Content, scalar(key), child)
		case child.Kind != yaml.MappingNode:
			// A null or scalar placeholder, e.g. "colors:" with only comments.
			*child = yaml.Node{Kind: yaml.MappingNode, HeadComment: child.HeadComment, LineComment: child.LineComment}
		}
		node = child
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = enc.Close()

	return writeAtomic(configPath, buf.Bytes())
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func withComments(v, old *yaml.Node) *yaml.Node {
	out := *v
	out.HeadComment = old.HeadComment
	out.LineComment = old.LineComment
	out.FootComment = old.FootComment
	return &out
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".codepad.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

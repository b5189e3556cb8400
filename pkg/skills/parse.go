package skills

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Defaulting rules applied when a frontmatter field is absent or malformed:
//
//	name         -> the skill directory name
//	title        -> name with dashes replaced by spaces, title-cased
//	description  -> ""
//	keywords     -> empty
//	version      -> "1.0.0"
//	auto_activate -> true
//	estimated_tokens -> computed from body length
const defaultVersion = "1.0.0"

// ParseFile reads a SKILL.md and produces metadata. A parse failure never
// makes the skill unusable: the returned Metadata is always populated,
// falling back to defaults derived from fallbackName, and the error
// reports what went wrong so the caller can record a diagnostic.
func ParseFile(path, fallbackName string) (Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return defaultMetadata(path, fallbackName, nil), errors.Wrap(err, "failed to read skill file")
	}
	return Parse(content, path, fallbackName)
}

// Parse extracts frontmatter metadata from SKILL.md content.
func Parse(content []byte, path, fallbackName string) (Metadata, error) {
	body := StripFrontmatter(string(content))

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return defaultMetadata(path, fallbackName, content), errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return defaultMetadata(path, fallbackName, content), errors.New("missing frontmatter")
	}

	m := Metadata{
		Name:            metaString(metaData, "name", fallbackName),
		Title:           metaString(metaData, "title", ""),
		Description:     metaString(metaData, "description", ""),
		Keywords:        metaStringList(metaData, "keywords"),
		Version:         metaString(metaData, "version", defaultVersion),
		AutoActivate:    metaBool(metaData, "auto_activate", true),
		EstimatedTokens: EstimateTokens(body),
		Path:            path,
	}
	if m.Name == "" {
		m.Name = fallbackName
	}
	if m.Title == "" {
		m.Title = titleFromName(m.Name)
	}
	return m, nil
}

func defaultMetadata(path, fallbackName string, content []byte) Metadata {
	body := StripFrontmatter(string(content))
	return Metadata{
		Name:            fallbackName,
		Title:           titleFromName(fallbackName),
		Keywords:        []string{},
		Version:         defaultVersion,
		AutoActivate:    true,
		EstimatedTokens: EstimateTokens(body),
		Path:            path,
	}
}

// StripFrontmatter removes the YAML frontmatter block and returns the body.
func StripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}

// EstimateTokens approximates the token count of text. One token is
// roughly four characters of English prose.
func EstimateTokens(text string) int {
	return len(text) / 4
}

func titleFromName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func metaString(m map[string]interface{}, key, fallback string) string {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	case int, int64, float64, bool:
		return fmt.Sprintf("%v", s)
	default:
		return fallback
	}
}

func metaBool(m map[string]interface{}, key string, fallback bool) bool {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

func metaStringList(m map[string]interface{}, key string) []string {
	v, ok := m[key]
	if !ok {
		return []string{}
	}

	switch list := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		// Tolerate "a, b, c" style scalar keyword fields
		parts := strings.Split(list, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []string{}
	}
}

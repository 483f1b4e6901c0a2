package chunker

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

var frontMatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(?:(.*?)\r?\n)?---[ \t]*(?:\r?\n|\z)`)

// FrontMatter holds the document metadata we keep from a YAML header.
type FrontMatter struct {
	Title string `yaml:"title"`
}

// StripFrontMatter removes a leading YAML front matter block and decodes it.
func StripFrontMatter(content string) (string, FrontMatter, error) {
	var meta FrontMatter

	loc := frontMatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return content, meta, nil
	}

	if loc[2] >= 0 {
		if err := yaml.Unmarshal([]byte(content[loc[2]:loc[3]]), &meta); err != nil {
			return "", meta, fmt.Errorf("invalid front matter: %w", err)
		}
	}

	return content[loc[1]:], meta, nil
}

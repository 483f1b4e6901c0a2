package retriever

import (
	"path"
	"strings"

	"semsearch/internal/adapter/analyzer"
)

// LinkOptions describe how a source path maps to its rendered URL.
type LinkOptions struct {
	BaseURL       string // prefix for every link, default "/"
	RenderedExt   string // replaces ".md" unless DirectoryURLs is set, default ".html"
	DirectoryURLs bool   // "guide/setup.md" -> "guide/setup/"
}

// RenderedPath maps a markdown source path to the path of its rendered page.
func (o LinkOptions) RenderedPath(source string) string {
	ext := path.Ext(source)
	if ext != ".md" && ext != ".markdown" {
		return source
	}
	stem := strings.TrimSuffix(source, ext)

	if o.DirectoryURLs {
		dir, file := path.Split(stem)
		if file == "index" || strings.EqualFold(file, "readme") {
			return dir
		}
		return stem + "/"
	}

	renderedExt := o.RenderedExt
	if renderedExt == "" {
		renderedExt = ".html"
	}
	return stem + renderedExt
}

// Link builds the navigable target for a result. An empty header links to
// the page itself.
func (o LinkOptions) Link(source, header string) string {
	base := o.BaseURL
	if base == "" {
		base = "/"
	}
	link := strings.TrimSuffix(base, "/") + "/" + o.RenderedPath(source)
	if slug := analyzer.Slugify(header); slug != "" {
		link += "#" + slug
	}
	return link
}

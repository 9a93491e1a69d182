// internal/head/builder.go
//
// Builder collects what goes inside a page's <head>.  One Builder per
// render: handlers push a title, meta, and link tags, then the page
// template emits Builder.HTML() in one place.
//
// Features
// --------
//   - SetTitle    – single <title> tag (last call wins).
//   - Meta, Link  – attribute-escaped tags, deduplicated by name / rel+href.
//   - NoIndex     – robots "noindex" for error and acknowledgement pages.
//   - HTML        – the assembled block as template.HTML.
package head

import (
	"html/template"
	"strings"
)

// Builder is scoped to one render and not safe for concurrent use.
type Builder struct {
	title string
	tags  []string
	seen  map[string]struct{}
}

// New returns a Builder carrying the charset and viewport tags every page
// needs.
func New() *Builder {
	b := &Builder{seen: make(map[string]struct{})}
	b.add("charset", `<meta charset="utf-8">`)
	b.Meta("viewport", "width=device-width, initial-scale=1")
	return b
}

// SetTitle overrides the page <title>.
func (b *Builder) SetTitle(t string) { b.title = t }

// Meta adds <meta name content>.  The first value for a name wins.
func (b *Builder) Meta(name, content string) {
	if content == "" {
		return
	}
	b.add("meta:"+name, `<meta name="`+attr(name)+`" content="`+attr(content)+`">`)
}

// Link adds <link rel href>.
func (b *Builder) Link(rel, href string) {
	b.add("link:"+rel+" "+href, `<link rel="`+attr(rel)+`" href="`+attr(href)+`">`)
}

// NoIndex asks crawlers to skip the page.
func (b *Builder) NoIndex() { b.Meta("robots", "noindex") }

func (b *Builder) add(key, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.tags = append(b.tags, tag)
}

// HTML returns the tags followed by the <title>, newline separated.
func (b *Builder) HTML() template.HTML {
	var sb strings.Builder
	for _, t := range b.tags {
		sb.WriteString(t)
		sb.WriteByte('\n')
	}
	if b.title != "" {
		sb.WriteString("<title>" + template.HTMLEscapeString(b.title) + "</title>")
	}
	return template.HTML(sb.String())
}

func attr(s string) string { return template.HTMLEscapeString(s) }

package site

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/wadakatu/gitlyte/internal/config"
)

// Bundle is the generated site as path → content pairs, handed to the
// publisher. This package never writes to storage itself.
type Bundle map[string][]byte

// Assemble sorts the fragments by plan order and concatenates them inside the
// fixed document shell: metadata, nav with one anchor per section, optional
// favicon, repository link and the selected theme palette.
func Assemble(sections []GeneratedSection, genCtx *GenerationContext) string {
	ordered := make([]GeneratedSection, len(sections))
	copy(ordered, sections)
	// Placement relies on the order tag, never on slice position.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	a := genCtx.Analysis
	title := html.EscapeString(displayName(a))
	description := html.EscapeString(a.Description)
	pal := resolvePalette(genCtx.Theme(), configColors(genCtx))

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html lang=\"en\" data-theme=%q>\n", genCtx.Theme())
	b.WriteString("<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", title)
	if description != "" {
		fmt.Fprintf(&b, "<meta name=\"description\" content=%q>\n", description)
	}
	if favicon := faviconURL(genCtx); favicon != "" {
		fmt.Fprintf(&b, "<link rel=\"icon\" href=%q>\n", favicon)
	}
	fmt.Fprintf(&b, "<style>\n%s</style>\n", pal.css())
	b.WriteString("</head>\n<body>\n")

	b.WriteString("<nav class=\"site-nav\">\n")
	fmt.Fprintf(&b, "  <span class=\"brand\">%s</span>\n", html.EscapeString(a.Name))
	for _, s := range ordered {
		if s.Type == "footer" {
			continue
		}
		fmt.Fprintf(&b, "  <a href=\"#%s\">%s</a>\n", s.Type, html.EscapeString(navLabel(s.Type)))
	}
	if a.HTMLURL != "" {
		fmt.Fprintf(&b, "  <a class=\"repo-link\" href=%q>GitHub</a>\n", a.HTMLURL)
	}
	b.WriteString("</nav>\n")

	for _, s := range ordered {
		b.WriteString(s.HTML)
		b.WriteString("\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// BuildBundle wraps the assembled document (and optional extra pages) into
// the path → content form the publisher commits.
func BuildBundle(document string, docsPage string) Bundle {
	bundle := Bundle{"index.html": []byte(document)}
	if docsPage != "" {
		bundle["docs.html"] = []byte(docsPage)
	}
	return bundle
}

// navLabel turns a section identifier into a nav caption: "getting-started"
// becomes "Getting Started".
func navLabel(sectionType string) string {
	words := strings.Split(strings.ReplaceAll(sectionType, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func configColors(genCtx *GenerationContext) *config.ColorConfig {
	if genCtx.Config == nil {
		return nil
	}
	return genCtx.Config.Design.Colors
}

func faviconURL(genCtx *GenerationContext) string {
	if genCtx.Config == nil {
		return ""
	}
	return genCtx.Config.Logo.FaviconURL
}

package site

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
)

// RenderDocsPage renders the repository README into a standalone docs page
// sharing the site's theme. An empty README yields an empty page (the bundle
// simply omits it).
func RenderDocsPage(genCtx *GenerationContext) (string, error) {
	readme := genCtx.Analysis.Readme
	if strings.TrimSpace(readme) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(readme), &buf); err != nil {
		return "", glerrors.Wrap(err, glerrors.CategoryContent, glerrors.SeverityError, "render readme markdown")
	}

	pal := resolvePalette(genCtx.Theme(), configColors(genCtx))
	title := html.EscapeString(displayName(genCtx.Analysis))

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "<title>%s Documentation</title>\n", title)
	fmt.Fprintf(&b, "<style>\n%s.docs-content { max-width: 860px; margin: 0 auto; padding: 3rem 1.5rem; }\n</style>\n", pal.css())
	b.WriteString("</head>\n<body>\n")
	b.WriteString("<nav class=\"site-nav\">\n")
	fmt.Fprintf(&b, "  <span class=\"brand\">%s</span>\n", html.EscapeString(genCtx.Analysis.Name))
	b.WriteString("  <a href=\"index.html\">Home</a>\n")
	b.WriteString("</nav>\n")
	b.WriteString("<main class=\"docs-content\">\n")
	b.Write(buf.Bytes())
	b.WriteString("</main>\n</body>\n</html>\n")
	return b.String(), nil
}

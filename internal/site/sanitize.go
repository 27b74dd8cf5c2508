package site

import (
	"fmt"
	"strings"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/llm"
)

// sanitizeSection cleans one raw model response into a usable HTML fragment:
// code-fence markers are stripped and the fragment is wrapped in a
// <section id="{type}"> container when the model did not provide one.
// Content that is empty after cleaning is an error naming the section type.
func sanitizeSection(sectionType, raw string) (string, error) {
	cleaned := strings.TrimSpace(llm.StripMarkdownFences(raw))
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))
	if cleaned == "" {
		return "", glerrors.SectionEmpty(sectionType)
	}

	if hasSectionWrapper(cleaned, sectionType) {
		return cleaned, nil
	}
	return fmt.Sprintf("<section id=%q>\n%s\n</section>", sectionType, cleaned), nil
}

func hasSectionWrapper(html, sectionType string) bool {
	for _, quote := range []string{`"`, `'`} {
		if strings.Contains(html, `<section id=`+quote+sectionType+quote) {
			return true
		}
	}
	return false
}

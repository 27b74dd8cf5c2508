package site

import (
	"fmt"
	"strings"

	"github.com/wadakatu/gitlyte/internal/config"
)

// palette is one fixed theme color set. Theme mode selects a palette wholesale;
// there is no blending between modes.
type palette struct {
	Background string
	Surface    string
	Text       string
	Muted      string
	Primary    string
	Secondary  string
	Accent     string
	Border     string
}

var lightPalette = palette{
	Background: "#ffffff",
	Surface:    "#f6f8fa",
	Text:       "#1f2328",
	Muted:      "#59636e",
	Primary:    "#0969da",
	Secondary:  "#1a7f37",
	Accent:     "#8250df",
	Border:     "#d1d9e0",
}

var darkPalette = palette{
	Background: "#0d1117",
	Surface:    "#161b22",
	Text:       "#e6edf3",
	Muted:      "#8d96a0",
	Primary:    "#4493f8",
	Secondary:  "#3fb950",
	Accent:     "#ab7df8",
	Border:     "#30363d",
}

func paletteFor(mode config.ThemeMode) palette {
	if mode == config.ThemeDark {
		return darkPalette
	}
	return lightPalette
}

// resolvePalette applies optional repo-config color overrides to the fixed
// palette of the selected mode.
func resolvePalette(mode config.ThemeMode, colors *config.ColorConfig) palette {
	p := paletteFor(mode)
	if colors == nil {
		return p
	}
	if colors.Primary != "" {
		p.Primary = colors.Primary
	}
	if colors.Secondary != "" {
		p.Secondary = colors.Secondary
	}
	if colors.Accent != "" {
		p.Accent = colors.Accent
	}
	return p
}

// css renders the palette as custom properties plus the shell's base rules.
func (p palette) css() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	fmt.Fprintf(&b, "  --color-bg: %s;\n", p.Background)
	fmt.Fprintf(&b, "  --color-surface: %s;\n", p.Surface)
	fmt.Fprintf(&b, "  --color-text: %s;\n", p.Text)
	fmt.Fprintf(&b, "  --color-muted: %s;\n", p.Muted)
	fmt.Fprintf(&b, "  --color-primary: %s;\n", p.Primary)
	fmt.Fprintf(&b, "  --color-secondary: %s;\n", p.Secondary)
	fmt.Fprintf(&b, "  --color-accent: %s;\n", p.Accent)
	fmt.Fprintf(&b, "  --color-border: %s;\n", p.Border)
	b.WriteString("}\n")
	b.WriteString(`* { box-sizing: border-box; margin: 0; }
body {
  background: var(--color-bg);
  color: var(--color-text);
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
  line-height: 1.6;
}
a { color: var(--color-primary); text-decoration: none; }
a:hover { text-decoration: underline; }
section { padding: 4rem 1.5rem; max-width: 960px; margin: 0 auto; }
.site-nav {
  display: flex;
  align-items: center;
  gap: 1.25rem;
  padding: 0.75rem 1.5rem;
  border-bottom: 1px solid var(--color-border);
  background: var(--color-surface);
  position: sticky;
  top: 0;
}
.site-nav .brand { font-weight: 600; color: var(--color-text); }
.site-nav .repo-link { margin-left: auto; }
.button {
  display: inline-block;
  padding: 0.6rem 1.2rem;
  border-radius: 6px;
  background: var(--color-primary);
  color: var(--color-bg);
}
`)
	return b.String()
}

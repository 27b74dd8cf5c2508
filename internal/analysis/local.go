package analysis

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
	"github.com/wadakatu/gitlyte/internal/logfields"
)

var readmeCandidates = []string{"README.md", "README.markdown", "Readme.md", "readme.md", "README"}

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

var languageByExtension = map[string]string{
	".go":    "Go",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".py":    "Python",
	".rb":    "Ruby",
	".rs":    "Rust",
	".java":  "Java",
	".kt":    "Kotlin",
	".swift": "Swift",
	".c":     "C",
	".h":     "C",
	".cc":    "C++",
	".cpp":   "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".php":   "PHP",
	".sh":    "Shell",
	".bash":  "Shell",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "SCSS",
	".vue":   "Vue",
	".dart":  "Dart",
	".ex":    "Elixir",
	".exs":   "Elixir",
	".erl":   "Erlang",
	".hs":    "Haskell",
	".lua":   "Lua",
	".pl":    "Perl",
	".r":     "R",
	".scala": "Scala",
	".zig":   "Zig",
}

// AnalyzeLocal builds an Analysis from a local working tree. The directory
// does not have to be a git repository; git-derived fields degrade to zero
// values so preview works on plain directories.
func AnalyzeLocal(dir string) (*Analysis, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, glerrors.Wrap(err, glerrors.CategoryValidation, glerrors.SeverityFatal, "resolve project directory")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, glerrors.Wrap(err, glerrors.CategoryValidation, glerrors.SeverityFatal, "project directory not accessible")
	}
	if !info.IsDir() {
		return nil, glerrors.New(glerrors.CategoryValidation, glerrors.SeverityFatal, "project path is not a directory")
	}

	result := &Analysis{
		Name:          filepath.Base(abs),
		DefaultBranch: "main",
	}

	result.Readme = readLocalReadme(abs)
	result.Description = firstReadmeParagraph(result.Readme)
	result.Languages = scanLanguages(abs)

	applyGitMetadata(abs, result)

	return result, nil
}

func readLocalReadme(dir string) string {
	for _, name := range readmeCandidates {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data)
		}
	}
	return ""
}

// firstReadmeParagraph extracts the first prose paragraph to stand in for the
// repository description GitHub would provide.
func firstReadmeParagraph(readme string) string {
	for _, block := range strings.Split(readme, "\n\n") {
		line := strings.TrimSpace(block)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") ||
			strings.HasPrefix(line, "[!") || strings.HasPrefix(line, "<") || strings.HasPrefix(line, "```") {
			continue
		}
		return truncateRunes(strings.ReplaceAll(line, "\n", " "), 300)
	}
	return ""
}

func scanLanguages(dir string) map[string]int {
	languages := map[string]int{}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		name := d.Name()
		if d.IsDir() {
			if skippedDirs[name] || (strings.HasPrefix(name, ".") && path != dir) {
				return filepath.SkipDir
			}
			return nil
		}
		lang, ok := languageByExtension[strings.ToLower(filepath.Ext(name))]
		if !ok {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			languages[lang] += int(info.Size())
		}
		return nil
	})
	if len(languages) == 0 {
		return nil
	}
	return languages
}

// applyGitMetadata fills branch and commit count when the directory is a git
// repository; otherwise the analysis keeps its defaults.
func applyGitMetadata(dir string, result *Analysis) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			slog.Warn("git metadata unavailable", logfields.Repository(result.Name), logfields.Error(err))
		}
		return
	}

	head, err := repo.Head()
	if err != nil {
		slog.Warn("git HEAD not resolvable", logfields.Repository(result.Name), logfields.Error(err))
		return
	}
	if head.Name().IsBranch() {
		result.DefaultBranch = head.Name().Short()
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return
	}
	defer iter.Close()

	count := 0
	_ = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	result.CommitCount = count
}

package trigger

import "strings"

// Mention is the command prefix recognized in issue comments.
const Mention = "@gitlyte"

// Verb is a recognized command verb.
type Verb string

const (
	VerbGenerate Verb = "generate"
	VerbPreview  Verb = "preview"
	VerbConfig   Verb = "config"
	VerbHelp     Verb = "help"
)

// ParsedCommand is one operator command extracted from a comment body.
type ParsedCommand struct {
	Verb    Verb
	Options map[string]string
}

// ParseComment parses "@gitlyte <verb> [--flag|--key=value ...]" from a
// comment body. Matching is case-sensitive. A body without the mention
// prefix, or with an unrecognized verb, yields nil: not a command, not an
// error, and the caller takes no action.
func ParseComment(body string) *ParsedCommand {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, Mention) {
		return nil
	}
	rest := trimmed[len(Mention):]
	// "@gitlyte" must be a whole token: reject "@gitlyteer".
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\n' {
		return nil
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}

	var verb Verb
	switch Verb(fields[0]) {
	case VerbGenerate, VerbPreview, VerbConfig, VerbHelp:
		verb = Verb(fields[0])
	default:
		return nil
	}

	options := map[string]string{}
	for _, tok := range fields[1:] {
		if !strings.HasPrefix(tok, "--") || len(tok) == 2 {
			continue
		}
		kv := tok[2:]
		if key, value, found := strings.Cut(kv, "="); found {
			if key != "" {
				options[key] = value
			}
			continue
		}
		options[kv] = "true"
	}

	return &ParsedCommand{Verb: verb, Options: options}
}

package query

import "strings"

// Marker prefixes recognized on the first token.
const (
	BangMarker    = "!"
	CommandMarker = "/"
)

// Query is a parsed search input. At most one of bang and command is set.
type Query struct {
	term    string
	bang    string
	command string
}

// Parse splits raw input into term, bang and command. Any input parses.
// Only the first token may carry a marker; a lone "!" or "/" stays in the term.
func Parse(raw string) Query {
	var q Query
	words := strings.Fields(raw)
	terms := make([]string, 0, len(words))
	for i, w := range words {
		switch {
		case i == 0 && len(w) > 1 && strings.HasPrefix(w, BangMarker):
			q.bang = w[1:]
		case i == 0 && len(w) > 1 && strings.HasPrefix(w, CommandMarker):
			q.command = w[1:]
		default:
			terms = append(terms, w)
		}
	}
	q.term = strings.Join(terms, " ")
	return q
}

// Term returns the remaining whitespace-joined tokens.
func (q Query) Term() string { return q.term }

// Bang returns the bang key without the marker, or "".
func (q Query) Bang() string { return q.bang }

// Command returns the command key without the marker, or "".
func (q Query) Command() string { return q.command }

// HasBang reports whether the first token was a bang.
func (q Query) HasBang() bool { return q.bang != "" }

// HasCommand reports whether the first token was a command.
func (q Query) HasCommand() bool { return q.command != "" }

// IsListBangs reports whether the input asks for all bangs (a lone "!").
func (q Query) IsListBangs() bool { return q.term == BangMarker }

// IsListCommands reports whether the input asks for all commands (a lone "/").
func (q Query) IsListCommands() bool { return q.term == CommandMarker }

package process

import (
	"errors"
	"strings"
)

var (
	// ErrUnclosedQuote is returned by ParseCommand for an unbalanced quote.
	ErrUnclosedQuote = errors.New("unclosed quote in command")

	// ErrDanglingEscape is returned by ParseCommand for a trailing backslash.
	ErrDanglingEscape = errors.New("no character after backslash in command")
)

// ParseCommand splits a command line into arguments using POSIX shell
// quoting. Single quotes are literal. Inside double quotes a backslash only
// escapes '"' and '\\'. Outside quotes it escapes any character.
func ParseCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoted := false
	quoteChar := rune(0)

	command = strings.TrimSpace(command)
	runes := []rune(command)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoted = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case isSpace(r) && !inQuote:
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		case r == '\\' && quoteChar == '\'':
			current.WriteRune(r)
		case r == '\\' && quoteChar == '"':
			if i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\') {
				i++
			}
			current.WriteRune(runes[i])
		case r == '\\':
			if i+1 == len(runes) {
				return nil, ErrDanglingEscape
			}
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if inQuote {
		return nil, ErrUnclosedQuote
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

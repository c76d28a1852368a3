package serverlog

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultPattern matches vanilla Minecraft server output:
//
//	[12:00:01] [Server thread/INFO]: Alice joined the game
const DefaultPattern = `\[(?P<hour>[0-9]{2}):(?P<minute>[0-9]{2}):(?P<second>[0-9]{2})\] ` +
	`\[(?P<thread>.+)/(?P<level>(INFO|WARN|ERROR))\]: (?P<message>.*)`

// ErrMissingGroup is returned when a pattern lacks a required named group.
var ErrMissingGroup = errors.New("log pattern missing named group")

var requiredGroups = []string{"hour", "minute", "second", "thread", "level", "message"}

// Classifier turns raw output lines into classified Lines.
// It is safe for concurrent use.
type Classifier struct {
	pattern string
	re      *regexp.Regexp
	indexes map[string]int
}

// NewClassifier compiles pattern. An empty pattern selects DefaultPattern.
func NewClassifier(pattern string) (*Classifier, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile log pattern: %w", err)
	}

	indexes := make(map[string]int, len(requiredGroups))
	for _, name := range requiredGroups {
		idx := re.SubexpIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingGroup, name)
		}
		indexes[name] = idx
	}

	return &Classifier{pattern: pattern, re: re, indexes: indexes}, nil
}

// MustClassifier is like NewClassifier but panics on error.
func MustClassifier(pattern string) *Classifier {
	c, err := NewClassifier(pattern)
	if err != nil {
		panic(err)
	}
	return c
}

// Pattern returns the source expression.
func (c *Classifier) Pattern() string {
	return c.pattern
}

// Classify parses raw. The pattern must match at the start of the line;
// trailing text after the match is ignored. A line that does not match,
// or whose level is not INFO, WARN or ERROR, is Unmatched.
func (c *Classifier) Classify(raw string, source Source) Line {
	line := Line{Raw: raw, Source: source, Result: Unmatched{Text: raw}}

	loc := c.re.FindStringSubmatchIndex(raw)
	if loc == nil {
		return line
	}

	level, ok := levelFromServer(c.group(raw, loc, "level"))
	if !ok {
		return line
	}

	line.Result = Matched{
		Hour:    c.group(raw, loc, "hour"),
		Minute:  c.group(raw, loc, "minute"),
		Second:  c.group(raw, loc, "second"),
		Thread:  c.group(raw, loc, "thread"),
		Level:   level,
		Message: c.group(raw, loc, "message"),
	}
	return line
}

func (c *Classifier) group(raw string, loc []int, name string) string {
	idx := c.indexes[name]
	start, end := loc[2*idx], loc[2*idx+1]
	if start < 0 {
		return ""
	}
	return raw[start:end]
}

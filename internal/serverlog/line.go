package serverlog

// Source identifies which output stream a line was read from.
type Source string

// Output streams of the supervised process.
const (
	SourceStdout Source = "stdout"
	SourceStderr Source = "stderr"
)

// Result is the outcome of classifying a line: either Matched or Unmatched.
type Result interface {
	isResult()
}

// Matched holds the fields captured from a line that fit the log pattern.
type Matched struct {
	Hour    string
	Minute  string
	Second  string
	Thread  string
	Level   Severity
	Message string
}

// Unmatched holds a line that did not fit the log pattern.
type Unmatched struct {
	Text string
}

func (Matched) isResult()   {}
func (Unmatched) isResult() {}

// Line is one classified line of server output.
type Line struct {
	Raw    string
	Source Source
	Result Result
}

// Message returns the message body, or the whole raw line when unmatched.
func (l Line) Message() string {
	if m, ok := l.Result.(Matched); ok {
		return m.Message
	}
	return l.Raw
}

// Severity returns the parsed level, or SeverityUnknown when unmatched.
func (l Line) Severity() Severity {
	if m, ok := l.Result.(Matched); ok {
		return m.Level
	}
	return SeverityUnknown
}

// Matched returns the captured fields and whether the line matched.
func (l Line) Matched() (Matched, bool) {
	m, ok := l.Result.(Matched)
	return m, ok
}

// String returns the raw line.
func (l Line) String() string {
	return l.Raw
}

// LineHandler receives every classified line from a Reader.
type LineHandler interface {
	HandleLine(line Line)
}

// LineHandlerFunc adapts a function to LineHandler.
type LineHandlerFunc func(line Line)

// HandleLine calls f(line).
func (f LineHandlerFunc) HandleLine(line Line) {
	f(line)
}

// Handlers fans a line out to several handlers in order.
type Handlers []LineHandler

// HandleLine calls every non-nil handler.
func (hs Handlers) HandleLine(line Line) {
	for _, h := range hs {
		if h != nil {
			h.HandleLine(line)
		}
	}
}

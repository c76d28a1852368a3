package serverlog

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"

	"github.com/smazurov/mcsupervisor/internal/metrics"
)

// maxLineSize bounds a single line. Longer lines are truncated and the
// rest of the line is discarded; reading continues with the next line.
const maxLineSize = 1 << 20

// Reader consumes one output stream line by line.
type Reader struct {
	Source     Source
	Classifier *Classifier
	Handler    LineHandler
	Echo       io.Writer // nil disables echo
	Filter     *Filter   // nil echoes everything
	Logger     *slog.Logger
}

// Run reads src until end of input. Every line is classified and handed to
// Handler before the next line is read, so per-stream order is preserved.
// Lines passing Filter are written to Echo. Run returns nil at EOF and the
// read error otherwise.
func (r *Reader) Run(src io.Reader) error {
	br := bufio.NewReaderSize(src, 64*1024)

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var buf []byte
	truncated := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !truncated {
			buf = append(buf, chunk...)
			if len(buf) > maxLineSize+1 {
				buf = buf[:maxLineSize]
				truncated = true
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
		case errors.Is(err, io.EOF):
			if len(buf) > 0 {
				r.emit(buf, truncated, logger)
			}
			return nil
		default:
			if len(buf) > 0 {
				r.emit(buf, truncated, logger)
			}
			return err
		}

		r.emit(buf, truncated, logger)
		buf = buf[:0]
		truncated = false
	}
}

func (r *Reader) emit(raw []byte, truncated bool, logger *slog.Logger) {
	if truncated {
		logger.Warn("Truncated long output line", "source", r.Source, "max_bytes", maxLineSize)
	} else {
		raw = bytes.TrimSuffix(raw, []byte("\n"))
		raw = bytes.TrimSuffix(raw, []byte("\r"))
	}

	line := r.Classifier.Classify(string(raw), r.Source)
	metrics.ObserveLine(string(r.Source), line.Severity().String())

	if r.Handler != nil {
		r.Handler.HandleLine(line)
	}

	if r.Echo != nil && r.Filter.Allows(line.Severity()) {
		if _, err := io.WriteString(r.Echo, line.Raw+"\n"); err != nil {
			logger.Debug("Failed to echo line", "source", r.Source, "error", err)
		}
	}
}

// Package output provides consistent CLI output for changes and status messages.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	werrors "github.com/opentangerine/watch/internal/errors"
	"github.com/opentangerine/watch/internal/ui"
	"github.com/opentangerine/watch/internal/watcher"
)

// Format selects how changes are printed.
type Format string

const (
	// FormatText prints one human-readable line per change.
	FormatText Format = "text"
	// FormatJSON prints one JSON object per line.
	FormatJSON Format = "json"
)

// TimeLayout is the timestamp layout of text change lines.
const TimeLayout = "15:04:05.000"

// ParseFormat parses a format name. Unknown names map to FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// ChangeRecord is the JSON form of a change line.
type ChangeRecord struct {
	Time     time.Time `json:"time"`
	Op       string    `json:"op"`
	Filename string    `json:"filename"`
	Path     string    `json:"path,omitempty"`
}

// ErrorRecord is the JSON form of an error line.
type ErrorRecord struct {
	Time  time.Time      `json:"time"`
	Error map[string]any `json:"error"`
}

// Writer provides formatted output for CLI.
// Change and Fault are safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	format Format
	styles ui.Styles
	now    func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithFormat sets the change line format.
func WithFormat(f Format) Option {
	return func(w *Writer) { w.format = f }
}

// WithColor enables styled output in text format.
func WithColor(enabled bool) Option {
	return func(w *Writer) { w.styles = ui.GetStyles(!enabled) }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// New creates a new output Writer. Output is plain text without color
// unless options say otherwise.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:    out,
		format: FormatText,
		styles: ui.NoColorStyles(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Format returns the configured format.
func (w *Writer) Format() Format {
	return w.format
}

// Change prints one change line.
func (w *Writer) Change(c watcher.Change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ts := w.now()
	if w.format == FormatJSON {
		w.writeJSON(ChangeRecord{
			Time:     ts,
			Op:       c.Op.String(),
			Filename: c.Filename,
			Path:     c.Path,
		})
		return
	}

	op := fmt.Sprintf("%-6s", c.Op.String())
	_, _ = fmt.Fprintf(w.out, "%s %s %s\n",
		w.styles.Dim.Render(ts.Format(TimeLayout)),
		w.styles.ForOperation(c.Op).Render(op),
		c.Filename)
}

// Fault prints an error reported by the watch.
// Text format writes a one-line CLI message, JSON format an ErrorRecord.
func (w *Writer) Fault(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.format == FormatJSON {
		w.writeJSON(ErrorRecord{Time: w.now(), Error: werrors.FormatForLog(err)})
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n",
		w.styles.Dim.Render(w.now().Format(TimeLayout)),
		w.styles.Error.Render(strings.TrimRight(werrors.FormatForCLI(err), "\n")))
}

func (w *Writer) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		_, _ = fmt.Fprintf(w.out, "{\"error\":%q}\n", err.Error())
		return
	}
	_, _ = w.out.Write(append(data, '\n'))
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.Status(icon, msg)
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Success.Render("✅"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Header prints a section header.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// KeyValue prints an indented label and value.
func (w *Writer) KeyValue(key, value string) {
	_, _ = fmt.Fprintf(w.out, "  %s %s\n", w.styles.Label.Render(key+":"), value)
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	// Indent each line
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

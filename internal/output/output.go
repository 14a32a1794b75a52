// Package output provides consistent CLI output formatting.
//
// On a terminal the writer decorates messages with icons and draws an
// in-place progress bar. Anywhere else (pipes, files, CI logs) it prints
// plain prefixed lines and skips progress entirely, so output stays
// grep-friendly.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out       io.Writer
	decorated bool
}

// New creates a Writer, decorating output only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return &Writer{
		out:       out,
		decorated: IsTTY(out) && !DetectNoColor(),
	}
}

// NewPlain creates a Writer that never decorates.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out}
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Decorated reports whether icons and progress bars are enabled.
func (w *Writer) Decorated() bool {
	return w.decorated
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
	w.Status(icon, fmt.Sprintf(format, args...))
}

func (w *Writer) level(icon, plain, msg string) {
	if w.decorated {
		w.Status(icon, msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", plain, msg)
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.level("✅", "ok:", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.level("⚠️ ", "warning:", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.level("❌", "error:", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Field prints an aligned "key: value" line.
func (w *Writer) Field(key string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %-16s %v\n", key+":", value)
}

// Result prints one ranked hit: rank, score, then the text indented below.
func (w *Writer) Result(rank int, score float64, position int, text string) {
	_, _ = fmt.Fprintf(w.out, "%d. [%.4f] #%d\n", rank, score, position)
	for _, line := range strings.Split(Truncate(text, 400), "\n") {
		_, _ = fmt.Fprintf(w.out, "   %s\n", line)
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Progress prints a progress bar with message. It is a no-op unless the
// writer is decorated.
func (w *Writer) Progress(current, total int, msg string) {
	if !w.decorated || total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	bar := renderProgressBar(current, total, 30)

	// Carriage return for in-place updates
	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", bar, pct, msg)

	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// renderProgressBar creates a text progress bar.
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	filled = max(0, min(filled, width))

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

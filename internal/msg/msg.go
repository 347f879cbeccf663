package msg

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Output and ErrOutput receive informational and error messages
var (
	Output    io.Writer = os.Stdout
	ErrOutput io.Writer = os.Stderr
)

func emit(w io.Writer, prefix, format string, a ...any) {
	fmt.Fprint(w, prefix, ": ")
	fmt.Fprintf(w, format, a...)
	fmt.Fprint(w, "\n")
}

func Error(format string, a ...any) {
	emit(ErrOutput, color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	emit(ErrOutput, color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	emit(ErrOutput, color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	emit(Output, color.HiGreenString("info"), format, a...)
}

// IndentWriter prefixes every line written through it with Indent
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if !w.didIndent {
			if _, err := io.WriteString(w.W, w.Indent); err != nil {
				return n, err
			}
			w.didIndent = true
		}
		if _, err := w.W.Write([]byte{c}); err != nil { // FIXME-perf: buffer this
			return n, err
		}
		n++
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	return n, nil
}

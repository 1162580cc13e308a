// Package printer provides styled, user-facing command output. A Printer is
// carried on the context so commands and helpers share one output target.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/reviewkit/revq/internal/core/styles"
)

type ctxKey struct{}

// Printer writes user-facing output for commands. Informational and success
// lines go to out, warnings and errors to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// New returns a Printer writing to the given writers.
func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut}
}

var defaultPrinter = New(os.Stdout, os.Stderr)

// WithPrinter returns a copy of ctx carrying p.
func WithPrinter(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer carried by ctx, or a default printer writing to
// stdout and stderr when none was attached.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return defaultPrinter
}

// Success prints a success line followed by muted detail lines.
func (p *Printer) Success(msg string, details ...string) {
	fmt.Fprintf(p.out, "%s %s\n", styles.Success.Render("✓"), msg)
	for _, d := range details {
		fmt.Fprintf(p.out, "  %s\n", styles.Muted.Render(d))
	}
}

// Successf prints a formatted success line.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", styles.Success.Render("✓"), fmt.Sprintf(format, args...))
}

// Infof prints a formatted informational line.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", styles.Header.Render("•"), fmt.Sprintf(format, args...))
}

// Warnf prints a formatted warning line to the error stream.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintf(p.errOut, "%s %s\n", styles.Warning.Render("!"), fmt.Sprintf(format, args...))
}

// Errorf prints a formatted error line to the error stream.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.errOut, "%s %s\n", styles.Error.Render("✗"), fmt.Sprintf(format, args...))
}

// Printf prints a plain formatted line.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, "%s\n", fmt.Sprintf(format, args...))
}

// Out returns the writer for plain output, for callers that stream content
// such as rendered diffs.
func (p *Printer) Out() io.Writer {
	return p.out
}

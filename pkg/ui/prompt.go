package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when the input closes before a line is read
var ErrNoInput = errors.New("no input available")

// TerminalPrompter reads one-time codes from the controlling terminal,
// falling back to stdin when /dev/tty cannot be opened
type TerminalPrompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminalPrompter opens /dev/tty for reading. The returned close
// function releases it.
func NewTerminalPrompter() (*TerminalPrompter, func()) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return NewPrompter(os.Stdin, os.Stderr), func() {}
	}
	return NewPrompter(tty, tty), func() { tty.Close() }
}

// NewPrompter reads from in and writes prompts to out. Every read goes
// through one buffered reader, so consecutive prompts on piped input
// each get their own line.
func NewPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, reader: bufio.NewReader(in), out: out}
}

// PromptCode asks once for a two-factor code. The read is abandoned when
// ctx ends.
func (p *TerminalPrompter) PromptCode(ctx context.Context, username string) (string, error) {
	fmt.Fprintf(p.out, "%s\n", Magenta("Two-factor authentication required for @"+username))
	fmt.Fprint(p.out, Cyan("Enter the 6-digit code: "))
	return p.readLine(ctx)
}

// Prompt asks for a visible line of input
func (p *TerminalPrompter) Prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(p.out, Cyan(label+": "))
	return p.readLine(ctx)
}

func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		line, err := p.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				err = ErrNoInput
			}
			done <- result{err: err}
			return
		}
		done <- result{line: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case r := <-done:
		return r.line, r.err
	}
}

// ReadSecret reads a line without echo when the input is a terminal.
// Piped input is read as a plain line from the shared reader.
func (p *TerminalPrompter) ReadSecret(ctx context.Context, label string) (string, error) {
	fmt.Fprint(p.out, Cyan(label+": "))

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(secret), nil
	}
	return p.readLine(ctx)
}

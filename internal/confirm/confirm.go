// Package confirm provides the confirmation capability palprune asks before
// mutating palettes.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is required but stdin is not a terminal.
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (use --yes to skip)")

// Confirmer asks the user to accept or decline an operation.
type Confirmer interface {
	Confirm(title, message string) (bool, error)
}

// Func adapts an ordinary function to the Confirmer interface.
type Func func(title, message string) (bool, error)

// Confirm calls f(title, message).
func (f Func) Confirm(title, message string) (bool, error) {
	return f(title, message)
}

// Always accepts every prompt.
var Always Confirmer = Func(func(string, string) (bool, error) { return true, nil })

// Never declines every prompt.
var Never Confirmer = Func(func(string, string) (bool, error) { return false, nil })

// Terminal prompts on a terminal and reads a y/N answer.
type Terminal struct {
	in          io.Reader
	out         io.Writer
	fd          int
	interactive func(fd int) bool
}

// NewTerminal returns a prompter bound to the process stdin and stderr.
func NewTerminal() *Terminal {
	return &Terminal{
		in:          os.Stdin,
		out:         os.Stderr,
		fd:          int(os.Stdin.Fd()), // #nosec G115 - file descriptors fit in int
		interactive: term.IsTerminal,
	}
}

// NewTerminalFrom returns a prompter reading from in and writing to out.
// The reader is always treated as interactive.
func NewTerminalFrom(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:          in,
		out:         out,
		interactive: func(int) bool { return true },
	}
}

// Confirm prints the title and message and waits for an answer. Anything but
// "y" or "yes" declines, including an empty line or end of input.
func (t *Terminal) Confirm(title, message string) (bool, error) {
	if t.interactive != nil && !t.interactive(t.fd) {
		return false, ErrNotInteractive
	}

	if title != "" {
		fmt.Fprintf(t.out, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	}
	fmt.Fprintf(t.out, "%s\n\nContinue? (y/N): ", message)

	line, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Package console arbitrates terminal access between the loop printing
// received messages and the loop composing a message to send.
//
// Every read and write goes through one mutex, so a received message
// is never printed in the middle of a compose prompt and a prompt
// never cuts a printed line in half.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Console serializes terminal I/O behind a single lock. At most one
// operation (one printed line or one prompted line-read) holds the
// terminal at any instant.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer

	interactive bool
}

// New returns a console reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok {
		c.interactive = term.IsTerminal(int(f.Fd()))
	}
	return c
}

// Interactive reports whether the input side is a real terminal.
func (c *Console) Interactive() bool { return c.interactive }

// Print writes one line to the terminal under the arbiter.
func (c *Console) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

// Printf formats and writes one line under the arbiter.
func (c *Console) Printf(format string, args ...interface{}) {
	c.Print(fmt.Sprintf(format, args...))
}

// ReadLine writes prompt and reads one line of input, holding the
// arbiter for the whole exchange. The trailing newline is stripped.
// The lock is released on every path, including read failures.
func (c *Console) ReadLine(prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.out, prompt); err != nil {
		return "", err
	}

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

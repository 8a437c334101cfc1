package prompt

import (
	"fmt"
	"io"
	"strings"
)

// Console reads answers line by line. It never reads past the newline ending an
// answer, so input typed ahead is left on stdin for the bot started afterwards.
type Console struct {
	in     io.Reader
	out    io.Writer
	assume bool
}

// New returns a Console reading from in and writing questions to out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

// AssumeYes makes Confirm answer yes without reading input.
func (c *Console) AssumeYes(yes bool) {
	c.assume = yes
}

// Ask prints label and returns the trimmed answer. def is returned for an empty
// answer or when input is exhausted.
func (c *Console) Ask(label, def string) string {
	if def != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}

	line := c.readLine()
	answer := strings.TrimSpace(line)
	if answer == "" {
		return def
	}
	return answer
}

// Confirm asks a yes/no question. Only "y" or "yes" (any case) count as yes.
func (c *Console) Confirm(question string) bool {
	if c.assume {
		fmt.Fprintf(c.out, "%s (y/N): y\n", question)
		return true
	}
	answer := strings.ToLower(c.Ask(question+" (y/N)", ""))
	return answer == "y" || answer == "yes"
}

// readLine reads a single byte at a time up to and including '\n'.
func (c *Console) readLine() string {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := c.in.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			break
		}
	}
	return sb.String()
}

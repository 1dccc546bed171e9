package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
)

// Prompt asks yes/no questions on a terminal.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a new prompt reading answers from in
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm writes question and reads answers until one is yes, y, no or n,
// case-insensitively.
func (p *Prompt) Confirm(question string) (bool, error) {
	for {
		fmt.Fprint(p.out, question)

		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, oops.With("context", "failed to read answer").Wrap(err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}

		if errors.Is(err, io.EOF) {
			return false, oops.With("context", "input closed before an answer").Wrap(io.ErrUnexpectedEOF)
		}
		fmt.Fprintln(p.out, "Please enter 'yes' or 'no'.")
	}
}

package admin

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errPasswordMismatch = errors.New("passwords do not match")

// Prompter reads answers from the operator. On a terminal passwords are
// read without echo; otherwise every answer is one line of in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: int(os.Stdin.Fd())}
}

// Line prints prompt and reads one trimmed line. A final line without a
// newline is accepted.
func (p *Prompter) Line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a password. The caller wipes the result with
// common.WipeByteArray.
func (p *Prompter) Password(prompt string) ([]byte, error) {
	if !isTerminal(p.fd) {
		line, err := p.Line(prompt)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// NewPassword asks twice and returns the password only if both entries
// match.
func (p *Prompter) NewPassword() ([]byte, error) {
	first, err := p.Password("New password: ")
	if err != nil {
		return nil, err
	}
	second, err := p.Password("Repeat password: ")
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, errPasswordMismatch
	}
	return first, nil
}

// Confirm asks a yes/no question; only "y" and "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Line(question + " [y/N]: ")
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

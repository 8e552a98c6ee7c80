package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yurifrl/sheetload/pkg/config"
)

var errEmptyPath = fmt.Errorf("%w: no source file given", config.ErrInvalidConfig)

// prompter asks for the inputs the user did not pass on the command line.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm func(int) bool
	secret func(int) ([]byte, error)
}

func newPrompter() *prompter {
	return &prompter{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		fd:     int(os.Stdin.Fd()),
		isTerm: term.IsTerminal,
		secret: term.ReadPassword,
	}
}

// inputs returns the source path and the database password, prompting for
// whichever one is missing. SQLite stores never ask for a password.
func (p *prompter) inputs(args []string, store config.Store) (string, string, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		var err error
		if path, err = p.line("Enter the path to the spreadsheet file: "); err != nil {
			return "", "", err
		}
		if path == "" {
			return "", "", errEmptyPath
		}
	}

	password := store.Password
	if password == "" && store.Driver != "sqlite" {
		var err error
		if password, err = p.password(fmt.Sprintf("Enter the database password for %s: ", store.User)); err != nil {
			return "", "", err
		}
	}
	return path, password, nil
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// password reads without echo on a terminal and falls back to a plain line
// when stdin is piped.
func (p *prompter) password(prompt string) (string, error) {
	if !p.isTerm(p.fd) {
		return p.line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	b, err := p.secret(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

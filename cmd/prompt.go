package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// consolePrompter asks the operator on a terminal
type consolePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newConsolePrompter(in io.Reader, out io.Writer) *consolePrompter {
	return &consolePrompter{in: bufio.NewScanner(in), out: out}
}

func (p *consolePrompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// SignIn implements auth.Prompter
func (p *consolePrompter) SignIn(authURL string) (string, error) {
	fmt.Fprintln(p.out, "Sign in via:")
	fmt.Fprintln(p.out, authURL)
	fmt.Fprintln(p.out, "Copy the url of the blank page shown after signing in.")
	return p.readLine("URL: ")
}

func (p *consolePrompter) DataDir() (string, error) {
	for {
		dir, err := p.readLine(`WizNote data directory (the one containing "index.db"): `)
		if err != nil {
			return "", err
		}
		if dir != "" {
			return dir, nil
		}
	}
}

func (p *consolePrompter) NotebookName() (string, error) {
	for {
		name, err := p.readLine("New notebook name (such as WizNote, can't be empty): ")
		if err != nil {
			return "", err
		}
		if name != "" {
			return name, nil
		}
	}
}

func (p *consolePrompter) ConfirmSections(names []string) (bool, error) {
	fmt.Fprintf(p.out, "%d section(s) will be created:\n", len(names))
	for _, n := range names {
		fmt.Fprintf(p.out, "  %s\n", n)
	}
	answer, err := p.readLine("Continue? [y/N]: ")
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

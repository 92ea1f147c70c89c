// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package prompt asks the operator questions on the controlling terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrNoTerminal = errors.New("no terminal available for interactive prompt")

// Terminal reads answers from In and writes questions to Out. Fd is the input
// descriptor used for no-echo reads and terminal detection.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	Fd  int
}

// Stdio is the process terminal. Questions go to stderr so stdout stays
// clean for output.
func Stdio() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr, Fd: int(os.Stdin.Fd())}
}

// IsTerminal reports whether input comes from a terminal.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(t.Fd)
}

// Confirm asks a yes/no question. Only y and yes, in any case, mean yes.
func (t *Terminal) Confirm(question string) (bool, error) {
	if !t.IsTerminal() {
		return false, ErrNoTerminal
	}
	return confirm(t.In, t.Out, question)
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Passphrase reads a secret with echo disabled. With confirmAgain the secret
// must be typed twice.
func (t *Terminal) Passphrase(label string, confirmAgain bool) (string, error) {
	if !t.IsTerminal() {
		return "", ErrNoTerminal
	}

	first, err := t.readSecret(label + ": ")
	if err != nil {
		return "", err
	}
	if !confirmAgain {
		return first, nil
	}

	second, err := t.readSecret("Confirm " + strings.ToLower(label) + ": ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func (t *Terminal) readSecret(label string) (string, error) {
	fmt.Fprint(t.Out, label)
	b, err := term.ReadPassword(t.Fd)
	fmt.Fprintln(t.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(b), nil
}

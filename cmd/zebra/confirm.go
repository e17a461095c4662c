package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"zebracli/internal/engine"
)

// stdioConfirmer asks on stdin/stdout. Without a terminal it answers no
// unless assumeYes is set.
type stdioConfirmer struct {
	assumeYes bool
	in        io.Reader
	out       io.Writer
}

func newConfirmer(assumeYes bool) engine.Confirmer {
	return stdioConfirmer{assumeYes: assumeYes, in: os.Stdin, out: os.Stdout}
}

func (c stdioConfirmer) Confirm(message string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	if f, ok := c.in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(c.out, "%s [y/N]: no (not a terminal, use --yes)\n", message)
		return false, nil
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", message)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

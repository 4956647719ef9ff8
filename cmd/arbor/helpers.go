package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"

	"github.com/bantamhq/arbor/internal/client"
	"github.com/bantamhq/arbor/internal/tree"
)

func stdinFd() int  { return int(os.Stdin.Fd()) }
func stdoutFd() int { return int(os.Stdout.Fd()) }

func isTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

func readToken() (string, error) {
	if isTerminal(stdinFd()) {
		fmt.Print("Token: ")
		tokenBytes, err := term.ReadPassword(stdinFd())
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(tokenBytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	token, err := reader.ReadString('\n')
	if err != nil && token == "" {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// runSpinner runs fn behind a spinner when stdout is a terminal.
func runSpinner(title string, fn func() error) error {
	if !isTerminal(stdoutFd()) {
		return fn()
	}

	var fnErr error
	if err := spinner.New().Title(title).Action(func() { fnErr = fn() }).Run(); err != nil {
		return err
	}
	return fnErr
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &netErr) || errors.As(err, &dnsErr)
}

// formatAPIError keeps the server's message and drops the transport detail.
func formatAPIError(action string, err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%s: the server rejected the token. Run 'arbor login' again", action)
	case errors.Is(err, tree.ErrNotFound):
		return fmt.Errorf("%s: not found", action)
	case isConnectionError(err):
		return fmt.Errorf("%s: server unreachable", action)
	}
	return fmt.Errorf("%s: %w", action, err)
}

package display

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"forum-tenant-sync/internal/errors"

	"golang.org/x/term"
)

// Confirm asks a yes/no question on the given reader/writer pair and
// defaults to no. Used before destructive operations.
func Confirm(reader io.Reader, writer io.Writer, colors *ColorSystem, message string) (bool, error) {
	fmt.Fprintf(writer, "%s %s ", colors.Warning(message), colors.Muted("[y/N]"))

	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.NewValidationError("failed to read confirmation", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ReadPassphrase prompts for an encryption passphrase without echoing.
// When stdin is not a terminal it falls back to a plain line read so
// scripted runs can pipe the passphrase in.
func ReadPassphrase(writer io.Writer, prompt string) (string, error) {
	fmt.Fprintf(writer, "%s: ", prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(writer)
		if err != nil {
			return "", errors.NewValidationError("failed to read passphrase", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.NewValidationError("failed to read passphrase", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

package credentials

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/emusicvibe/internal/shared"
	"golang.org/x/term"
)

// TerminalPicker opens the key page in a browser and reads the pasted key from the terminal.
//
// Input is hidden when In is a terminal.
type TerminalPicker struct {
	In          io.Reader
	Out         io.Writer
	OpenBrowser func(url string) error
}

// NewTerminalPicker reads from stdin and writes prompts to stderr.
func NewTerminalPicker() *TerminalPicker {
	return &TerminalPicker{In: os.Stdin, Out: os.Stderr, OpenBrowser: shared.OpenBrowser}
}

// Pick implements [Picker].
func (p *TerminalPicker) Pick(ctx context.Context) (string, error) {
	if p.OpenBrowser != nil {
		if err := p.OpenBrowser(shared.KeyPageURL); err != nil {
			fmt.Fprintf(p.Out, "Open %s to create or copy a key.\n", shared.KeyPageURL)
		}
	}
	fmt.Fprintf(p.Out, "Image generation requires a paid key, see %s\n", shared.BillingDocsURL)
	fmt.Fprint(p.Out, "Paste your Gemini API key: ")

	type readResult struct {
		key string
		err error
	}
	done := make(chan readResult, 1)
	go func() {
		key, err := p.read()
		done <- readResult{key, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		fmt.Fprintln(p.Out)
		return strings.TrimSpace(r.key), r.err
	}
}

func (p *TerminalPicker) read() (string, error) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return line, nil
}

package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// TerminalPrompter asks for the authorization code on a terminal.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// PromptCode prints authURL and reads one line. It returns ctx.Err() if the
// context ends first and io.EOF if input closes without a line.
//
// Reads from In cannot be interrupted. When ctx ends first the read is
// abandoned: its goroutine stays blocked until In yields a line or closes, and
// whatever it reads is discarded. Callers that need the goroutine to exit must
// close In after cancellation.
func (p *TerminalPrompter) PromptCode(ctx context.Context, authURL string) (string, error) {
	_, _ = fmt.Fprintf(p.Out, "Please visit the following URL to authorize the application:\n\n%s\n\nEnter the authorization code: ", authURL)

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err == io.EOF && strings.TrimSpace(line) != "" {
			err = nil
		}
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

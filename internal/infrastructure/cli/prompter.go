package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// Prompter implements ConfirmationPrompter using stdin/stdout. The REPL reads
// its input lines through the same reader. A Prompter is not safe for
// concurrent use.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// pending holds a read that outlived a cancelled prompt; the next prompt
	// takes its line instead of starting a second reader.
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Enabled indicates the prompter is interactive.
func (p *Prompter) Enabled() bool {
	return true
}

// Confirm asks for the typed phrase, and for HIGH commands the command
// restated. An empty answer declines and returns a nil token. Whether the
// token matches is decided by the interpreter, not here.
func (p *Prompter) Confirm(ctx context.Context, risk domain.RiskAssessment, command string) (*domain.ConfirmToken, error) {
	fmt.Fprintf(p.out, "\n%s risk: %s\n", strings.ToUpper(risk.Tier.String()), risk.Rationale)
	fmt.Fprintf(p.out, "Command:\n  %s\n", command)

	phrase, err := p.ask(ctx, fmt.Sprintf("Type %q to continue (empty to cancel)", risk.ConfirmationPhrase))
	if err != nil {
		return nil, err
	}
	if phrase == "" {
		return nil, nil
	}
	token := &domain.ConfirmToken{Phrase: phrase}
	if risk.Policy == domain.PolicyConfirmAndRestate {
		restated, err := p.ask(ctx, "Type the command exactly as shown above")
		if err != nil {
			return nil, err
		}
		if restated == "" {
			return nil, nil
		}
		token.Restatement = restated
	}
	return token, nil
}

// Choose lists clarification candidates and returns the picked index, or -1
// when the user picks none.
func (p *Prompter) Choose(ctx context.Context, candidates []domain.Candidate) (int, error) {
	if len(candidates) == 0 {
		return -1, nil
	}
	answer, err := p.ask(ctx, fmt.Sprintf("Pick 1-%d (empty to cancel)", len(candidates)))
	if err != nil {
		return -1, err
	}
	if answer == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(candidates) {
		fmt.Fprintf(p.out, "%q is not one of the choices.\n", answer)
		return -1, nil
	}
	return n - 1, nil
}

// ReadLine reads one trimmed line after printing prompt verbatim.
func (p *Prompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	return p.readLine(ctx)
}

func (p *Prompter) ask(ctx context.Context, promptText string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", promptText)
	return p.readLine(ctx)
}

// readLine returns ctx.Err() as soon as ctx is done, even while the terminal
// read is still blocked. End of input after a partial line still returns that
// line.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		p.pending = ch
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-p.pending:
		p.pending = nil
		if r.err != nil && (r.err != io.EOF || r.line == "") {
			return "", r.err
		}
		return strings.TrimSpace(r.line), nil
	}
}

var _ ports.ConfirmationPrompter = (*Prompter)(nil)

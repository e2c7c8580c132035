package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// errQuit ends the menu loop when input runs out.
var errQuit = errors.New("input closed")

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// line prints label and returns the next input line without its newline.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errQuit
	}
	return strings.TrimRight(p.in.Text(), "\r"), nil
}

// text returns the input, or current when the input is empty.
func (p *prompter) text(label, current string) (string, error) {
	s, err := p.line(fmt.Sprintf("%s [%s]: ", label, current))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return current, nil
	}
	return strings.TrimSpace(s), nil
}

// decimal re-prompts until the input is a number; a comma is accepted as
// the decimal separator.
func (p *prompter) decimal(label string, current decimal.Decimal) (decimal.Decimal, error) {
	for {
		s, err := p.line(fmt.Sprintf("%s [%s]: ", label, current.String()))
		if err != nil {
			return decimal.Zero, err
		}
		if s == "" {
			return current, nil
		}
		v, err := core.ParseDecimal(s)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(p.out, "Invalid input. Please enter a number.")
	}
}

// whole re-prompts until the input is made of digits only.
func (p *prompter) whole(label string, current int) (int, error) {
	for {
		s, err := p.line(fmt.Sprintf("%s [%d]: ", label, current))
		if err != nil {
			return 0, err
		}
		if s == "" {
			return current, nil
		}
		v, err := core.ParseWholeNumber(s)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(p.out, "Invalid input. Please enter a whole number.")
	}
}

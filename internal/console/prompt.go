package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Prompter reads answers line by line. Lines are pulled on a background
// goroutine, started by the first Ask, so a pending prompt can be abandoned
// when ctx is cancelled.
type Prompter struct {
	in    io.Reader
	out   io.Writer
	lines chan string

	start   sync.Once
	stop    sync.Once
	done    chan struct{}
	stopped chan struct{} // closed once the reader goroutine returns
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		lines:   make(chan string),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (p *Prompter) read() {
	defer close(p.stopped)
	defer close(p.lines)

	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		select {
		case p.lines <- scanner.Text():
		case <-p.done:
			return
		}
	}
}

// Ask prints label and waits for the next trimmed line. It returns io.EOF once
// input is exhausted.
func (p *Prompter) Ask(ctx context.Context, label string) (string, error) {
	p.start.Do(func() { go p.read() })

	io.WriteString(p.out, label)
	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close releases the reader goroutine once it has a line to hand over.
// A read already blocked on the input stays blocked until that input yields.
func (p *Prompter) Close() {
	p.stop.Do(func() { close(p.done) })
}

func isQuit(answer string) bool {
	return strings.EqualFold(answer, "quit")
}

// parseHours wants a strictly positive whole number of hours.
func parseHours(s string) (int, string) {
	hours, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, "Error: Please enter a valid number."
	}
	if hours <= 0 {
		return 0, "Error: Hours must be a positive number."
	}
	return hours, ""
}

// ErrNonPositiveAmount is returned by ParseAmount for zero or negative amounts.
var ErrNonPositiveAmount = errors.New("starting amount must be positive")

// ParseAmount accepts dollar amounts written like "$10,000.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(s))
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return amount, nil
}

func parseAmount(s string) (decimal.Decimal, string) {
	amount, err := ParseAmount(s)
	switch {
	case errors.Is(err, ErrNonPositiveAmount):
		return decimal.Zero, "Error: Starting amount must be positive."
	case err != nil:
		return decimal.Zero, "Error: Please enter a valid number."
	}
	return amount, ""
}

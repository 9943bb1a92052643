// Package review asks the operator about proposed renames.
package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/naming"
)

type Action string

const (
	Accept Action = "accept"
	Edit   Action = "edit"
	Skip   Action = "skip"
)

// Proposal is what the operator is shown for one file.
type Proposal struct {
	Path      string
	Target    string
	Decision  entity.RoutingDecision
	Aggregate float64
	LowFields []entity.Field
}

// Answer is the operator's choice. Name is set for Edit and is already sanitized.
type Answer struct {
	Action Action
	Name   string
}

type Reviewer interface {
	Confirm(ctx context.Context, p Proposal) (Answer, error)
}

const maxEditAttempts = 3

// Console prompts on a line-oriented reader/writer pair, normally stdin/stdout.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Confirm asks "Rename? [Y/n]" for approved or soft-review proposals and
// offers accept/edit/skip for hard confirmations.
func (c *Console) Confirm(ctx context.Context, p Proposal) (Answer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	c.printf("  %s -> %s\n", filepath.Base(p.Path), p.Target)
	if p.Decision == entity.HardConfirm {
		return c.hard(p)
	}
	return c.simple(p)
}

func (c *Console) simple(p Proposal) (Answer, error) {
	if p.Decision == entity.SoftReview {
		c.printf("  Review suggested (confidence %.2f)\n", p.Aggregate)
	}
	c.printf("  Rename? [Y/n]: ")
	line, err := c.readLine()
	if err != nil {
		return Answer{}, err
	}
	switch strings.ToLower(line) {
	case "", "y", "yes":
		return Answer{Action: Accept}, nil
	default:
		return Answer{Action: Skip}, nil
	}
}

func (c *Console) hard(p Proposal) (Answer, error) {
	c.printf("  Low confidence (%.2f)", p.Aggregate)
	if len(p.LowFields) > 0 {
		names := make([]string, len(p.LowFields))
		for i, f := range p.LowFields {
			names[i] = string(f)
		}
		c.printf(", check: %s", strings.Join(names, ", "))
	}
	c.printf("\n")

	for {
		c.printf("  [a]ccept / [e]dit / [s]kip: ")
		line, err := c.readLine()
		if err != nil {
			return Answer{}, err
		}
		switch strings.ToLower(line) {
		case "a", "accept":
			return Answer{Action: Accept}, nil
		case "s", "skip":
			return Answer{Action: Skip}, nil
		case "e", "edit":
			return c.edit(p)
		}
	}
}

func (c *Console) edit(p Proposal) (Answer, error) {
	ext := filepath.Ext(p.Path)
	for i := 0; i < maxEditAttempts; i++ {
		c.printf("  New name [%s]: ", p.Target)
		line, err := c.readLine()
		if err != nil {
			return Answer{}, err
		}
		if line == "" {
			return Answer{Action: Accept}, nil
		}
		if name := naming.FromUserInput(line, ext); name != "" {
			return Answer{Action: Edit, Name: name}, nil
		}
		c.printf("  That name has no usable characters.\n")
	}
	return Answer{Action: Skip}, nil
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", common.NewAppError(common.CodeReviewInputFailed, "read answer", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// RequireTerminal fails with a ConfigurationError when f is not an
// interactive terminal, so prompts are never answered by a pipe.
func RequireTerminal(f *os.File) error {
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return common.NewConfigError("interactive confirmation needs a terminal on stdin; use -y for unattended runs")
}

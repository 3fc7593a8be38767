package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/shelfscan/pkg/domain"
	"github.com/aretw0/shelfscan/pkg/ports"
	"github.com/muesli/termenv"
)

var _ ports.Presenter = (*Console)(nil)

// Console prints status labels and notices to a terminal.
// Consecutive duplicate labels are collapsed.
type Console struct {
	mu      sync.Mutex
	out     *termenv.Output
	last    string
	verbose bool
}

// NewConsole creates a Console on w. With verbose=false only notices and
// detections are printed.
func NewConsole(w io.Writer, verbose bool) *Console {
	return &Console{out: termenv.NewOutput(w), verbose: verbose}
}

// PresentStatus implements ports.Presenter.
func (c *Console) PresentStatus(ctx context.Context, report domain.StatusReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.verbose || report.Label == c.last {
		return
	}
	c.last = report.Label
	label := c.out.String(report.Label).Faint()
	fmt.Fprintf(c.out, "%s %s\n", c.out.String("•").Foreground(c.out.Color("8")), label)
}

// PresentNotice implements ports.Presenter.
func (c *Console) PresentNotice(ctx context.Context, notice domain.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var marker termenv.Style
	switch notice.Level {
	case domain.NoticeSuccess:
		marker = c.out.String("✔").Foreground(c.out.Color("2")).Bold()
	case domain.NoticeDestructive:
		marker = c.out.String("✖").Foreground(c.out.Color("1")).Bold()
	default:
		marker = c.out.String("ℹ").Foreground(c.out.Color("4"))
	}
	line := marker.String() + " " + c.out.String(notice.Title).Bold().String()
	if notice.Description != "" {
		line += ": " + notice.Description
	}
	fmt.Fprintln(c.out, line)
}

// Detection is one row of a session summary.
type Detection struct {
	ISBN string
	At   time.Time
}

// Summary renders the detections of a session as a markdown table.
func Summary(detections []Detection) string {
	var sb strings.Builder
	sb.WriteString("# Scan summary\n\n")
	if len(detections) == 0 {
		sb.WriteString("_No ISBN captured._\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d ISBN captured.\n\n", len(detections))
	sb.WriteString("| # | ISBN | Time |\n|---|---|---|\n")
	for i, d := range detections {
		fmt.Fprintf(&sb, "| %d | `%s` | %s |\n", i+1, d.ISBN, d.At.Format(time.TimeOnly))
	}
	return sb.String()
}

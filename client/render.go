package main

import (
	"chat-relay/domain"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Renderer prints chat events to the terminal.
// The stream listener and the input loop share it.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	me      string
	colours bool
}

func NewRenderer(out io.Writer, me string, colours bool) *Renderer {
	return &Renderer{out: out, me: me, colours: colours}
}

// FormatMessage renders one message on a single line.
func (r *Renderer) FormatMessage(m domain.Message) string {
	at := m.At.Local().Format(time.TimeOnly)
	switch {
	case m.Kind == domain.KindNotice:
		return r.paint(color.FgRed, fmt.Sprintf("[%s] ! %s", at, m.Text))
	case m.Kind == domain.KindSystem || m.From == domain.System:
		return r.paint(color.FgYellow, fmt.Sprintf("[%s] * %s", at, m.Text))
	case !m.IsBroadcast():
		return r.paint(color.FgMagenta, fmt.Sprintf("[%s] %s -> %s: %s", at, m.From, m.To, m.Text))
	case m.From == r.me:
		return r.paint(color.FgGreen, fmt.Sprintf("[%s] %s: %s", at, m.From, m.Text))
	default:
		return fmt.Sprintf("[%s] %s: %s", at, m.From, m.Text)
	}
}

func (r *Renderer) Message(m domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.FormatMessage(m))
}

func (r *Renderer) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.paint(color.FgRed, "error: "+err.Error()))
}

func (r *Renderer) Info(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.paint(color.FgCyan, text))
}

// Online prints the connected users as a table.
func (r *Renderer) Online(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := r.table([]string{"#", "Online"})
	for i, name := range names {
		if name == r.me {
			name += " (you)"
		}
		table.Append([]string{fmt.Sprint(i + 1), name})
	}
	table.Render()
}

// History prints past messages as a table.
func (r *Renderer) History(messages []domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := r.table([]string{"Time", "From", "To", "Text"})
	for _, m := range messages {
		table.Append([]string{m.At.Local().Format(time.TimeOnly), m.From, m.To, m.Text})
	}
	table.Render()
}

func (r *Renderer) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func (r *Renderer) paint(c color.Color, text string) string {
	if !r.colours {
		return text
	}
	return c.Render(text)
}

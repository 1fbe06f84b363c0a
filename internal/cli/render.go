package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

const maxCellWidth = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func renderPreview(p *domain.TablePreview) string {
	rows := make([][]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		row := make([]string, len(p.Headers))
		for i, h := range p.Headers {
			row[i] = truncate(r[h], maxCellWidth)
		}
		rows = append(rows, row)
	}
	return renderTable(p.Headers, rows)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// progressView renders submission progress: a redrawn bar on a terminal,
// one line per change otherwise.
type progressView struct {
	out     io.Writer
	tty     bool
	bar     progress.Model
	last    ingest.Progress
	started bool
}

func newProgressView(out io.Writer) *progressView {
	return &progressView{
		out: out,
		tty: isTerminal(out),
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (v *progressView) Update(p ingest.Progress) {
	if v.started && p == v.last {
		return
	}
	v.started, v.last = true, p

	msg := p.Message
	if msg == "" {
		msg = "starting"
	}
	if v.tty {
		fmt.Fprintf(v.out, "\r\033[K%s %s", v.bar.ViewAs(float64(p.Percent)/100), msg)
		return
	}
	fmt.Fprintf(v.out, "[%3d%%] %s\n", p.Percent, msg)
}

// Done ends the redrawn line.
func (v *progressView) Done() {
	if v.tty && v.started {
		fmt.Fprintln(v.out)
	}
}

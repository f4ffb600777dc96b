package cli

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the terminal view.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Alert   lipgloss.Color // Error highlight color
}

// DefaultTheme is the default warm gallery theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#d4a24e"),
	Dim:     lipgloss.Color("#6e7681"),
	Alert:   lipgloss.Color("#f85149"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Alert  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Alert:  lipgloss.NewStyle().Bold(true).Foreground(t.Alert),
	}
}

// TraceView keeps a sliding window of the most recent trace lines for the
// live conversation frame. Safe for concurrent use.
type TraceView struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewTraceView creates a view holding at most max lines.
func NewTraceView(max int) *TraceView {
	return &TraceView{max: max}
}

// Push appends a line, evicting the oldest when full.
func (v *TraceView) Push(line string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = append(v.lines, line)
	if len(v.lines) > v.max {
		v.lines = v.lines[len(v.lines)-v.max:]
	}
}

// Lines returns a snapshot of the current window.
func (v *TraceView) Lines() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.lines...)
}

// ConversationFrame renders the live conversation view: a bordered panel
// with the artwork title, lifecycle state badge, the trace window, and a
// help line.
type ConversationFrame struct {
	Styles Styles
	Title  string
	State  string
	Trace  *TraceView
	Help   string
}

// Render renders the frame to a string.
func (f ConversationFrame) Render(width, height int) string {
	if width == 0 || height == 0 {
		return "Loading..."
	}

	bc := f.Styles.Border
	var lines []string

	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	title := f.Styles.Title.Render(f.Title)
	badge := f.Styles.Help.Render("[" + f.State + "]")
	if f.State == "error" {
		badge = f.Styles.Alert.Render("[error]")
	}
	padding := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(badge))
	lines = append(lines, bc.Render("│")+" "+title+" "+badge+
		strings.Repeat(" ", padding)+" "+bc.Render("│"))

	lines = append(lines, bc.Render("│")+strings.Repeat(" ", width-2)+bc.Render("│"))

	// Trace window fills the remaining rows, newest lines last.
	window := height - 5
	if window < 2 {
		window = 2
	}
	content := f.Trace.Lines()
	if len(content) > window {
		content = content[len(content)-window:]
	}
	maxContentWidth := width - 4
	for _, line := range content {
		if lipgloss.Width(line) > maxContentWidth {
			line = truncateTo(line, maxContentWidth)
		}
		pad := max(0, width-4-lipgloss.Width(line))
		lines = append(lines, bc.Render("│")+" "+line+strings.Repeat(" ", pad)+" "+bc.Render("│"))
	}
	for i := len(content); i < window; i++ {
		lines = append(lines, bc.Render("│")+strings.Repeat(" ", width-2)+bc.Render("│"))
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	lines = append(lines, f.Styles.Help.Render(f.Help))

	return strings.Join(lines, "\n")
}

func truncateTo(s string, width int) string {
	if width <= 1 {
		return "…"
	}
	runes := []rune(s)
	out := ""
	for _, r := range runes {
		if lipgloss.Width(out+string(r)) >= width {
			break
		}
		out += string(r)
	}
	return out + "…"
}

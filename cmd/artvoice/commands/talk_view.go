package commands

import (
	"fmt"
	"io"

	"github.com/docentlab/artvoice/pkg/cli"
	"github.com/docentlab/artvoice/pkg/docent"
)

// traceWindowLines is how many trace lines the live frame keeps visible.
const traceWindowLines = 64

// frameWidth and frameHeight size the live frame. A fixed size keeps the
// redraw simple; this is a status feed, not a full-screen TUI.
const (
	frameWidth  = 80
	frameHeight = 24
)

// conversationView renders the live conversation feed. In plain mode each
// new trace entry is printed as a timestamped line, suitable for piping;
// otherwise the bordered frame is redrawn in place on every update.
type conversationView struct {
	out    io.Writer
	plain  bool
	styles cli.Styles
	trace  *cli.TraceView
	frame  cli.ConversationFrame
	seen   int
}

func newConversationView(out io.Writer, title string, plain bool) *conversationView {
	v := &conversationView{
		out:    out,
		plain:  plain,
		styles: cli.NewStyles(cli.DefaultTheme),
	}
	if plain {
		fmt.Fprintln(out, v.styles.Title.Render(title))
		return v
	}
	v.trace = cli.NewTraceView(traceWindowLines)
	v.frame = cli.ConversationFrame{
		Styles: v.styles,
		Title:  title,
		Trace:  v.trace,
		Help:   "ctrl-c: hang up",
	}
	return v
}

// sync consumes trace entries past the last render and redraws.
func (v *conversationView) sync(state docent.State, entries []docent.TraceEntry) {
	fresh := entries[v.seen:]
	v.seen = len(entries)

	if v.plain {
		for _, e := range fresh {
			fmt.Fprintf(v.out, "%s %s\n",
				v.styles.Help.Render(e.Time.Format("15:04:05")), e.Message)
		}
		return
	}

	for _, e := range fresh {
		v.trace.Push(e.Time.Format("15:04:05") + " " + e.Message)
	}
	v.frame.State = string(state)
	fmt.Fprint(v.out, "\033[H\033[2J"+v.frame.Render(frameWidth, frameHeight)+"\n")
}

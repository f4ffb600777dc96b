package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/docentlab/artvoice/pkg/docent"
)

func traceEntries(messages ...string) []docent.TraceEntry {
	entries := make([]docent.TraceEntry, len(messages))
	for i, m := range messages {
		entries[i] = docent.TraceEntry{Time: time.Now(), Message: m}
	}
	return entries
}

func TestPlainViewPrintsEachEntryOnce(t *testing.T) {
	var buf bytes.Buffer
	view := newConversationView(&buf, "The Starry Night", true)
	if !strings.Contains(buf.String(), "The Starry Night") {
		t.Fatal("plain view did not print the title")
	}
	buf.Reset()

	view.sync(docent.StateConnecting, traceEntries("state: connecting"))
	view.sync(docent.StateConnecting, traceEntries("state: connecting", "credential issued"))

	out := buf.String()
	if got := strings.Count(out, "state: connecting"); got != 1 {
		t.Errorf("entry printed %d times; want 1", got)
	}
	if !strings.Contains(out, "credential issued") {
		t.Error("new entry missing from output")
	}
}

func TestFrameViewRendersStateAndTrace(t *testing.T) {
	var buf bytes.Buffer
	view := newConversationView(&buf, "The Starry Night", false)

	view.sync(docent.StateConnected, traceEntries("state: connected", "session configured (voice=alloy)"))

	out := buf.String()
	if !strings.Contains(out, "\033[H\033[2J") {
		t.Error("frame redraw missing clear sequence")
	}
	if !strings.Contains(out, "The Starry Night") {
		t.Error("frame missing title")
	}
	if !strings.Contains(out, "connected") {
		t.Error("frame missing state badge")
	}
	if !strings.Contains(out, "session configured") {
		t.Error("frame missing trace line")
	}
}

package artwork

import (
	"fmt"
	"strings"
)

// docentPersona is the fixed preamble of every session prompt. The
// artwork-specific material is appended by BuildInstructions.
const docentPersona = `You are a warm, knowledgeable museum docent having a spoken conversation with a visitor who is standing in front of an artwork. Speak naturally and conversationally, in short turns suited to voice. Ground everything you say in the context below; when you are not sure, say so rather than inventing details. Invite questions and never lecture for more than a few sentences at a time.`

// BuildInstructions derives the session instruction text from a resolved
// artwork context. The output always contains the title verbatim, and the
// facts and description verbatim when present.
func BuildInstructions(c *Context) string {
	var b strings.Builder
	b.WriteString(docentPersona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "The visitor is looking at %q.", c.Title)
	if c.Facts != "" {
		fmt.Fprintf(&b, "\nKey facts: %s", c.Facts)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "\nCuratorial description: %s", c.Description)
	}
	b.WriteString("\n\nOpen by briefly greeting the visitor and offering one inviting observation about the work.")
	return b.String()
}

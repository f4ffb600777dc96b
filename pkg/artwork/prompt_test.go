package artwork

import (
	"strings"
	"testing"
)

func TestBuildInstructions(t *testing.T) {
	tests := []struct {
		name     string
		context  Context
		contains []string
		excludes []string
	}{
		{
			name: "title and facts",
			context: Context{
				ID:    "starry-night",
				Title: "Starry Night",
				Facts: "Oil on canvas, 1889",
			},
			contains: []string{"Starry Night", "1889", "docent"},
		},
		{
			name: "title only",
			context: Context{
				ID:    "untitled-7",
				Title: "Untitled No. 7",
			},
			contains: []string{"Untitled No. 7"},
			excludes: []string{"Key facts"},
		},
		{
			name: "description included verbatim",
			context: Context{
				ID:          "guernica",
				Title:       "Guernica",
				Description: "Painted in response to the 1937 bombing.",
			},
			contains: []string{"Guernica", "Painted in response to the 1937 bombing."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildInstructions(&tc.context)
			for _, want := range tc.contains {
				if !strings.Contains(got, want) {
					t.Errorf("instructions missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tc.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("instructions should not contain %q", bad)
				}
			}
		})
	}
}

func TestBuildInstructionsDeterministic(t *testing.T) {
	c := &Context{ID: "a", Title: "A", Facts: "f"}
	if BuildInstructions(c) != BuildInstructions(c) {
		t.Error("BuildInstructions is not deterministic")
	}
}

package analysis

import (
	"strings"
	"testing"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	meta := Metadata{CustomerName: "Acme Corp", CallType: "qbr", CSMName: "Jordan"}
	transcript := "CSM: Thanks for joining today."

	sys1, user1 := BuildPrompt(transcript, meta)
	sys2, user2 := BuildPrompt(transcript, meta)

	if sys1 != sys2 || user1 != user2 {
		t.Error("expected identical prompts for identical inputs")
	}
}

func TestBuildPrompt_EmbedsContext(t *testing.T) {
	meta := Metadata{CustomerName: "Acme Corp", CallType: "discovery", Objectives: "Qualify the expansion", CSMName: "Jordan"}
	sys, user := BuildPrompt("hello world", meta)

	for _, want := range []string{"Acme Corp", "discovery", "Qualify the expansion", "Jordan"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.Contains(user, "<transcript>\nhello world\n</transcript>") {
		t.Errorf("user prompt missing delimited transcript: %q", user)
	}
}

func TestBuildPrompt_Defaults(t *testing.T) {
	sys, _ := BuildPrompt("x", Metadata{CustomerName: "Acme", CallType: "other"})

	if !strings.Contains(sys, defaultObjectives) {
		t.Error("expected default objectives when none provided")
	}
	if !strings.Contains(sys, "- CSM: N/A") {
		t.Error("expected N/A CSM when none provided")
	}
}

func TestBuildPrompt_CoversResultSchema(t *testing.T) {
	sys, _ := BuildPrompt("x", Metadata{CustomerName: "Acme", CallType: "qbr"})

	fields := append([]string{"summary", "top_3_strengths", "top_3_opportunities",
		"role_playing_summary", "role_playing_examples"}, CategoryNames...)
	for _, f := range fields {
		if !strings.Contains(sys, `"`+f+`"`) {
			t.Errorf("JSON template missing field %q", f)
		}
	}
	if !strings.Contains(sys, "<analysis>") || !strings.Contains(sys, "</analysis>") {
		t.Error("system prompt missing the answer delimiter tags")
	}
}

package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion is the current shape of Result. Older records used a flat
// schema without per-category scores; those fail field validation rather
// than being silently coerced.
const SchemaVersion = 2

// Metadata is the call context the prompt is built from.
type Metadata struct {
	CustomerName string `json:"customer_name"`
	CallType     string `json:"call_type"`
	Objectives   string `json:"objectives,omitempty"`
	CSMName      string `json:"csm_name,omitempty"`
}

// Timestamp is a position in the call, in seconds. The model emits it as a
// string or a number depending on its mood, so both decode.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timestamp must be a string or number: %w", err)
	}
	*t = Timestamp(n.String())
	return nil
}

// Seconds returns the numeric value, or false if the timestamp is absent or
// not parseable.
func (t Timestamp) Seconds() (float64, bool) {
	if t == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(t), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Display formats the timestamp as M:SS for the UI and reports.
func (t Timestamp) Display() string {
	secs, ok := t.Seconds()
	if !ok {
		return string(t)
	}
	return fmt.Sprintf("%d:%02d", int(secs)/60, int(secs)%60)
}

// Entry is one strength, opportunity, or role-playing note.
type Entry struct {
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp,omitempty"`
	Quote     string    `json:"quote,omitempty"`
}

// RolePlayExample is a practice scenario the model proposes.
type RolePlayExample struct {
	Text                  string `json:"text"`
	CustomerRole          string `json:"customer_role"`
	ExampleScenarioPrompt string `json:"example_scenario_prompt"`
}

// Summary is the overall assessment with a 0-5 score.
type Summary struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Section is one coaching category. Score is the rounded average of the
// section's sub-scores; the prompt asserts that, the parser does not verify it.
type Section struct {
	Score         *float64 `json:"score,omitempty"`
	Strengths     []Entry  `json:"strengths"`
	Opportunities []Entry  `json:"opportunities"`
}

// Result is the parsed analysis contract.
type Result struct {
	SchemaVersion              int               `json:"schema_version,omitempty"`
	Summary                    Summary           `json:"summary"`
	RelationshipBuilding       Section           `json:"relationship_building"`
	CustomerHealthAssessment   Section           `json:"customer_health_assessment"`
	ValueDemonstration         Section           `json:"value_demonstration"`
	StrategicAccountManagement Section           `json:"strategic_account_management"`
	CompetitivePositioning     Section           `json:"competitive_positioning"`
	Top3Strengths              []Entry           `json:"top_3_strengths"`
	Top3Opportunities          []Entry           `json:"top_3_opportunities"`
	RolePlayingSummary         []Entry           `json:"role_playing_summary"`
	RolePlayingExamples        []RolePlayExample `json:"role_playing_examples"`
}

// CategoryNames is the canonical section order, matching the dashboard.
var CategoryNames = []string{
	"relationship_building",
	"customer_health_assessment",
	"value_demonstration",
	"strategic_account_management",
	"competitive_positioning",
}

// requiredFields are the top-level keys a parsed result must carry.
var requiredFields = append([]string{"summary"}, CategoryNames...)

// NamedSection pairs a section with its wire name.
type NamedSection struct {
	Name    string
	Section Section
}

// Categories returns the five sections in canonical order.
func (r *Result) Categories() []NamedSection {
	return []NamedSection{
		{"relationship_building", r.RelationshipBuilding},
		{"customer_health_assessment", r.CustomerHealthAssessment},
		{"value_demonstration", r.ValueDemonstration},
		{"strategic_account_management", r.StrategicAccountManagement},
		{"competitive_positioning", r.CompetitivePositioning},
	}
}

// CategoryTitle renders a wire name for humans: "relationship_building" ->
// "Relationship Building".
func CategoryTitle(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

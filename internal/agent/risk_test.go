package agent

import (
	"errors"
	"reflect"
	"testing"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

func TestParseRiskListExtractsArrayFromProse(t *testing.T) {
	t.Parallel()

	raw := "Here is my assessment:\n```json\n[\n  {\"disease\": \"Tension headache\", \"risk\": 4},\n" +
		"  {\"disease\": \"Migraine\", \"risk\": 6}\n]\n```\nTake care."
	got, err := parseRiskList(raw)
	if err != nil {
		t.Fatalf("parseRiskList failed: %v", err)
	}

	want := []domain.RiskAssessment{
		{Disease: "Tension headache", Risk: 4},
		{Disease: "Migraine", Risk: 6},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected assessments: %+v", got)
	}
}

func TestParseRiskListClampsOutOfRangeScores(t *testing.T) {
	t.Parallel()

	got, err := parseRiskList(`[{"disease": "A", "risk": -3}, {"disease": "B", "risk": 42}]`)
	if err != nil {
		t.Fatalf("parseRiskList failed: %v", err)
	}
	if got[0].Risk != 0 || got[1].Risk != 10 {
		t.Fatalf("expected clamped scores, got %+v", got)
	}
}

func TestParseRiskListCollapsesDuplicateDiseases(t *testing.T) {
	t.Parallel()

	raw := `[
		{"disease": "Migraine", "risk": 3},
		{"disease": "Sinusitis", "risk": 2},
		{"disease": "migraine", "risk": 7},
		{"disease": "MIGRAINE", "risk": 5}
	]`
	got, err := parseRiskList(raw)
	if err != nil {
		t.Fatalf("parseRiskList failed: %v", err)
	}

	want := []domain.RiskAssessment{
		{Disease: "Migraine", Risk: 7},
		{Disease: "Sinusitis", Risk: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected case-insensitive merge keeping first spelling, got %+v", got)
	}
}

func TestParseRiskListTruncatesToFiveEntries(t *testing.T) {
	t.Parallel()

	raw := `[
		{"disease": "A", "risk": 1},
		{"disease": "B", "risk": 2},
		{"disease": "C", "risk": 3},
		{"disease": "D", "risk": 4},
		{"disease": "E", "risk": 5},
		{"disease": "F", "risk": 6},
		{"disease": "G", "risk": 7}
	]`
	got, err := parseRiskList(raw)
	if err != nil {
		t.Fatalf("parseRiskList failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(got))
	}
	if got[0].Disease != "A" || got[4].Disease != "E" {
		t.Fatalf("expected the first five to survive, got %+v", got)
	}
}

func TestParseRiskListToleratesLooseRiskValues(t *testing.T) {
	t.Parallel()

	raw := `[
		{"disease": "Quoted", "risk": "6"},
		{"disease": "Float", "risk": 7.8},
		{"disease": "Nonsense", "risk": "high"}
	]`
	got, err := parseRiskList(raw)
	if err != nil {
		t.Fatalf("parseRiskList failed: %v", err)
	}

	want := []domain.RiskAssessment{
		{Disease: "Quoted", Risk: 6},
		{Disease: "Float", Risk: 7},
		{Disease: "Nonsense", Risk: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected assessments: %+v", got)
	}
}

func TestParseRiskListSkipsBlankDiseases(t *testing.T) {
	t.Parallel()

	got, err := parseRiskList(`[{"disease": "", "risk": 5}, {"disease": "   ", "risk": 4}, {"disease": "Real", "risk": 3}]`)
	if err != nil {
		t.Fatalf("parseRiskList failed: %v", err)
	}
	if len(got) != 1 || got[0].Disease != "Real" {
		t.Fatalf("expected blank diseases skipped, got %+v", got)
	}
}

func TestParseRiskListRejectsUnparsableOutput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no array":     "I cannot tell without more information.",
		"broken json":  `The risks are [unclear, sorry]`,
		"half bracket": "possible causes include [",
	}
	for name, raw := range cases {
		if _, err := parseRiskList(raw); !errors.Is(err, errMalformedOutput) {
			t.Fatalf("%s: expected malformed output error, got %v", name, err)
		}
	}
}

func TestParseRiskListAcceptsEmptyArray(t *testing.T) {
	t.Parallel()

	got, err := parseRiskList("Nothing stands out.\n[]")
	if err != nil {
		t.Fatalf("parseRiskList failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

package history

import (
	"testing"

	"github.com/radieske/prediction-gateway-poc/internal/prediction/normalize"
)

func f(v float64) *float64 { return &v }

func TestReconcileSortsDescending(t *testing.T) {
	records := []RawRecord{
		{
			RawResponse:         normalize.RawResponse{Model: "Quick Pick", PredictedWinner: "Home Win", ProbHomeWin: f(0.6)},
			HomeTeamName:        "Penrith Panthers",
			AwayTeamName:        "Sydney Roosters",
			PredictionTimestamp: "2026-08-20T10:00:00Z",
		},
		{
			RawResponse:         normalize.RawResponse{Model: "Edge Finder", PredictedWinner: "Home", ProbHomeRL: f(0.71)},
			HomeTeamName:        "Brisbane Broncos",
			AwayTeamName:        "Melbourne Storm",
			PredictionTimestamp: "2026-08-22T10:00:00Z",
		},
		{
			RawResponse:         normalize.RawResponse{Model: "Form Cruncher", PredictedWinner: "Draw"},
			HomeTeamName:        "Canberra Raiders",
			AwayTeamName:        "Wests Tigers",
			PredictionTimestamp: "2026-08-21T10:00:00Z",
		},
	}

	got := Reconcile(records)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].HomeTeam != "Brisbane Broncos" || got[1].HomeTeam != "Canberra Raiders" || got[2].HomeTeam != "Penrith Panthers" {
		t.Errorf("order = %q, %q, %q", got[0].HomeTeam, got[1].HomeTeam, got[2].HomeTeam)
	}
}

func TestReconcileInvalidTimestampsGoLast(t *testing.T) {
	records := []RawRecord{
		{
			RawResponse:         normalize.RawResponse{Model: "Form Cruncher"},
			HomeTeamName:        "No Timestamp",
			PredictionTimestamp: "",
		},
		{
			RawResponse:         normalize.RawResponse{Model: "Quick Pick"},
			HomeTeamName:        "Bad Timestamp",
			PredictionTimestamp: "not-a-timestamp",
		},
		{
			RawResponse:         normalize.RawResponse{Model: "Edge Finder"},
			HomeTeamName:        "Valid",
			PredictionTimestamp: "2026-08-22 10:00:00",
		},
	}

	got := Reconcile(records)
	if got[0].HomeTeam != "Valid" {
		t.Errorf("first = %q, want Valid", got[0].HomeTeam)
	}
	// inválidos ordenam depois de qualquer timestamp válido, na ordem original
	if got[1].HomeTeam != "No Timestamp" || got[2].HomeTeam != "Bad Timestamp" {
		t.Errorf("tail = %q, %q", got[1].HomeTeam, got[2].HomeTeam)
	}
}

func TestReconcileUsesStoredModelAsAlias(t *testing.T) {
	records := []RawRecord{
		{
			RawResponse:         normalize.RawResponse{Model: "Edge Finder", PredictedWinner: "Home", ProbHomeRL: f(0.71)},
			PredictionTimestamp: "2026-08-22T10:00:00Z",
		},
	}

	got := Reconcile(records)
	if got[0].ModelAlias != "Edge Finder" {
		t.Errorf("alias = %q", got[0].ModelAlias)
	}
	if got[0].Confidence != 0.71 {
		t.Errorf("confidence = %v", got[0].Confidence)
	}
	if got[0].AliasSubstituted {
		t.Error("stored model must not count as substitution")
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	records := []RawRecord{
		{RawResponse: normalize.RawResponse{Model: "a"}, PredictionTimestamp: "2026-08-20T10:00:00Z"},
		{RawResponse: normalize.RawResponse{Model: "b"}, PredictionTimestamp: "2026-08-22T10:00:00Z"},
	}

	_ = Reconcile(records)
	if records[0].Model != "a" || records[1].Model != "b" {
		t.Error("input slice was reordered")
	}
}

func TestReconcileEmptyInput(t *testing.T) {
	if got := Reconcile(nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

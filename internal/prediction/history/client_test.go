package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/prediction-gateway-poc/internal/prediction/orchestrator"
)

func TestFetchReturnsReconciledHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/predictions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"model":"Quick Pick","predicted_winner":"Home Win","prob_home_win":0.6,
			 "home_team_name":"Older","prediction_timestamp":"2026-08-20T10:00:00Z"},
			{"model":"Edge Finder","predicted_winner":"Home","prob_home_rl":0.71,
			 "home_team_name":"Newer","prediction_timestamp":"2026-08-22T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL)

	got, err := c.Fetch(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].HomeTeam != "Newer" || got[1].HomeTeam != "Older" {
		t.Errorf("order = %q, %q", got[0].HomeTeam, got[1].HomeTeam)
	}
	if got[0].ModelAlias != "Edge Finder" || got[0].Confidence != 0.71 {
		t.Errorf("first entry = %+v", got[0])
	}
}

func TestFetchUpstreamErrorBecomesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid token"}`))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL)

	_, err := c.Fetch(context.Background(), "expired")
	var te *orchestrator.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %T(%v), want *TransportError", err, err)
	}
	if te.Status != http.StatusUnauthorized || te.Detail != "invalid token" {
		t.Errorf("transport error = %+v", te)
	}
}

func TestSubmitRating(t *testing.T) {
	var gotPayload ratingPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/feedback/rating" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL)

	if err := c.SubmitRating(context.Background(), "tok-1", "41", 4); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotPayload.PredictionID != "41" || gotPayload.RatingValue != 4 {
		t.Errorf("payload = %+v", gotPayload)
	}
}

func TestSubmitResult(t *testing.T) {
	var gotPayload resultPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/feedback/result" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL)

	if err := c.SubmitResult(context.Background(), "tok-1", "41", "Home Win", 8); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotPayload.PredictionID != "41" || gotPayload.ActualWinner != "Home Win" || gotPayload.ActualMargin != 8 {
		t.Errorf("payload = %+v", gotPayload)
	}
}

func TestSubmitResultInvalidInputSkipsNetwork(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL)

	if err := c.SubmitResult(context.Background(), "tok-1", "41", "", 8); err == nil {
		t.Error("empty winner should be rejected")
	}
	if err := c.SubmitResult(context.Background(), "tok-1", "41", "Home Win", -1); err == nil {
		t.Error("negative margin should be rejected")
	}
	if called {
		t.Error("backend called for invalid result")
	}
}

func TestSubmitRatingOutOfRangeSkipsNetwork(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), srv.URL)

	if err := c.SubmitRating(context.Background(), "tok-1", "41", 0); err == nil {
		t.Error("rating 0 should be rejected")
	}
	if err := c.SubmitRating(context.Background(), "tok-1", "41", 6); err == nil {
		t.Error("rating 6 should be rejected")
	}
	if called {
		t.Error("backend called for out-of-range rating")
	}
}

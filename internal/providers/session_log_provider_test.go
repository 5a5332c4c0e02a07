package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testSessionLogProvider(url string) *SessionLogProvider {
	return &SessionLogProvider{
		BaseURL:       url,
		Client:        &http.Client{},
		limiter:       rate.NewLimiter(rate.Inf, 1),
		retryAttempts: 3,
		retryDelay:    time.Millisecond,
	}
}

func TestSessionLogProvider_GetAtcSessions_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ratings/1439797/atcsessions/" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("start") == "" {
			t.Error("Expected start query parameter")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"count": 3,
			"results": [
				{"connection_id": 1, "callsign": "EDDF_TWR", "minutes_on_callsign": "62.50", "start": "2026-05-01T10:00:00"},
				{"connection_id": 2, "callsign": "EDDF_APP", "minutes_on_callsign": "bogus", "start": "2026-05-02T10:00:00Z"},
				{"connection_id": 3, "callsign": "EDWW_CTR", "minutes_on_callsign": "30", "start": "not-a-date"}
			]
		}`))
	}))
	defer server.Close()

	provider := testSessionLogProvider(server.URL)

	sessions, err := provider.GetAtcSessions(context.Background(), 1439797, time.Now().AddDate(0, -6, 0))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}

	if sessions[0].Minutes != 62.5 {
		t.Errorf("Expected 62.5 minutes, got %f", sessions[0].Minutes)
	}
	if sessions[0].Start == nil {
		t.Error("Expected parsed start for first session")
	}

	// Malformed duration degrades to zero, timestamp is kept.
	if sessions[1].Minutes != 0 {
		t.Errorf("Expected 0 minutes for malformed duration, got %f", sessions[1].Minutes)
	}
	if sessions[1].Start == nil {
		t.Error("Expected parsed start for second session")
	}

	// Unparseable timestamp is dropped, duration is kept.
	if sessions[2].Minutes != 30 {
		t.Errorf("Expected 30 minutes, got %f", sessions[2].Minutes)
	}
	if sessions[2].Start != nil {
		t.Errorf("Expected nil start for unparseable timestamp, got %v", sessions[2].Start)
	}
}

func TestSessionLogProvider_GetAtcSessions_RetriesThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"count": 0, "results": []}`))
	}))
	defer server.Close()

	provider := testSessionLogProvider(server.URL)

	sessions, err := provider.GetAtcSessions(context.Background(), 100, time.Now())
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected empty session list, got %d", len(sessions))
	}
}

func TestSessionLogProvider_GetAtcSessions_RetriesExhausted(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := testSessionLogProvider(server.URL)

	_, err := provider.GetAtcSessions(context.Background(), 100, time.Now())
	if err == nil {
		t.Fatal("Expected error after exhausted retries")
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
}

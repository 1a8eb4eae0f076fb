package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseClassifierResponse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLen   int
		wantFirst string
		wantErr   bool
	}{
		{
			name:      "batch of one",
			raw:       `[[{"label":"joy","score":0.9},{"label":"sadness","score":0.1}]]`,
			wantLen:   2,
			wantFirst: "joy",
		},
		{
			name:      "flat list",
			raw:       `[{"label":"anger","score":0.7}]`,
			wantLen:   1,
			wantFirst: "anger",
		},
		{
			name:    "empty batch",
			raw:     `[]`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			raw:     `oops`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassifierResponse([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClassifierResponse: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("got %d labels, want %d", len(got), tt.wantLen)
			}
			if got[0].Label != tt.wantFirst {
				t.Errorf("first label: got %q, want %q", got[0].Label, tt.wantFirst)
			}
		})
	}
}

func TestHTTPClassifier_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"label":"happy","score":0.8},{"label":"sad","score":0.2}]]`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(HTTPClassifierConfig{BaseURL: srv.URL, Model: "test-emotion"})

	scores, err := c.Classify(context.Background(), "what a great day")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	if scores[0].Label != "happy" || scores[0].Score != 0.8 {
		t.Errorf("unexpected first score: %+v", scores[0])
	}
}

func TestHTTPClassifier_CircuitOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(HTTPClassifierConfig{BaseURL: srv.URL, RequestsPerSecond: 1000})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Classify(ctx, "text"); err == nil {
			t.Fatalf("call %d: expected error from failing backend", i)
		}
	}

	// Breaker trips after 3 consecutive failures; the next call must be
	// rejected without hitting the backend.
	_, err := c.Classify(ctx, "text")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

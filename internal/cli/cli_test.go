package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, h http.HandlerFunc, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", srv.URL, "--api-key", "k"}, args...))
	err := root.Execute()
	return out.String(), err
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestPlanCmd(t *testing.T) {
	var body map[string]any
	out, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		reply(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"spot": "Bahrain Fort", "time": "Morning", "type": "place", "reason": "History"},
			},
			"issues": []map[string]any{
				{"index": 0, "spot": "Bahrain Fortress", "kind": "unknown_spot", "message": "unknown spot", "suggestion": "Bahrain Fort"},
			},
			"latency_ms": 900,
		})
	}, "plan", "history", "and", "seafood", "--food", "Seafood,Cafe")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if body["message"] != "history and seafood" {
		t.Errorf("message = %v", body["message"])
	}
	prefs, _ := body["preferences"].(map[string]any)
	if food, _ := prefs["food"].([]any); len(food) != 2 {
		t.Errorf("preferences = %v", body["preferences"])
	}
	for _, want := range []string{"Bahrain Fort", "did you mean \"Bahrain Fort\"", "1 stops, 900 ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlanCmd_NoPreferencesOmitted(t *testing.T) {
	var raw map[string]json.RawMessage
	_, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		reply(w, http.StatusOK, map[string]any{"items": []any{}})
	}, "plan", "x")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, ok := raw["preferences"]; ok {
		t.Error("preferences sent without flags")
	}
}

func TestPlanCmd_RequiresMessage(t *testing.T) {
	if _, err := run(t, func(http.ResponseWriter, *http.Request) {}, "plan"); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestPlanCmd_ServerError(t *testing.T) {
	_, err := run(t, func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusInternalServerError, map[string]any{"error": "plan parse failed"})
	}, "plan", "x")
	if err == nil || !strings.Contains(err.Error(), "plan parse failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestMatchCmd(t *testing.T) {
	var raw map[string]any
	out, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		reply(w, http.StatusOK, map[string]any{"clients": []map[string]any{{"id": "c1", "score": 0.7}}})
	}, "match", "--interest", "history", "--top-k", "3")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if raw["topK"] != float64(3) {
		t.Errorf("topK = %v", raw["topK"])
	}
	if !strings.Contains(out, `"id": "c1"`) {
		t.Errorf("output = %s", out)
	}
}

func TestChatCmd_History(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte(`[{"role":"user","text":"hi"},{"role":"assistant","text":"hello"}]`), 0o600); err != nil {
		t.Fatal(err)
	}

	var body struct {
		History []map[string]any `json:"history"`
	}
	out, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		reply(w, http.StatusOK, map[string]any{
			"reply":   "Visit the souq.",
			"actions": []map[string]any{{"type": "show_posts", "query": "souq"}},
		})
	}, "chat", "where next?", "--history", path)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(body.History) != 2 {
		t.Errorf("history = %v", body.History)
	}
	if !strings.Contains(out, "Visit the souq.") || !strings.Contains(out, "-> show_posts souq") {
		t.Errorf("output = %s", out)
	}
}

func TestChatCmd_BadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}
	called := false
	_, err := run(t, func(http.ResponseWriter, *http.Request) { called = true }, "chat", "x", "--history", path)
	if err == nil || called {
		t.Fatalf("err = %v called = %v", err, called)
	}
}

func TestPlacesCmd(t *testing.T) {
	var query string
	out, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		reply(w, http.StatusOK, map[string]any{
			"places":   []map[string]any{{"id": "1", "name": "Bab Al Bahrain", "kind": "place", "category": "landmark"}},
			"fallback": true,
		})
	}, "places", "--mappable")
	if err != nil {
		t.Fatalf("places: %v", err)
	}
	if query != "ar=true" {
		t.Errorf("query = %q", query)
	}
	if !strings.Contains(out, "featured places") || !strings.Contains(out, "Bab Al Bahrain") {
		t.Errorf("output = %s", out)
	}
}

func TestHealthCmd(t *testing.T) {
	out, err := run(t, func(w http.ResponseWriter, _ *http.Request) {
		reply(w, http.StatusServiceUnavailable, map[string]any{"status": "error", "checks": map[string]string{"vector": "error"}})
	}, "health")
	if !errors.Is(err, errUnhealthy) {
		t.Fatalf("expected errUnhealthy, got %v", err)
	}
	if !strings.Contains(out, `"vector": "error"`) {
		t.Errorf("report not printed: %s", out)
	}
}

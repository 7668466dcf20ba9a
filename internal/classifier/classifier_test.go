package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lakeshore-ultimate/tally/internal/activity"
	"github.com/lakeshore-ultimate/tally/internal/openai"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMessage() activity.Message {
	return activity.Message{
		Ref:       "msg-1",
		Author:    "casey",
		Channel:   "challenges",
		Content:   "ran 3 miles this morning",
		Timestamp: time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC),
	}
}

func respondWith(t *testing.T, w http.ResponseWriter, id string, body Response) {
	t.Helper()
	text, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal response body: %v", err)
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"status": "completed",
		"output": []map[string]any{
			{
				"type": "message",
				"content": []map[string]any{
					{"type": "output_text", "text": string(text)},
				},
			},
		},
		"usage": map[string]any{"input_tokens": 100, "output_tokens": 20},
	})
}

func TestClassify_ParsesCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["instructions"] == nil || req["instructions"] == "" {
			t.Error("expected instructions on first call")
		}
		respondWith(t, w, "resp_1", Response{
			Activities: []activity.Candidate{
				{Type: activity.TypeWorkout, UserID: "casey", Date: "2025-07-10", Reason: "ran 3 miles"},
			},
		})
	}))
	defer server.Close()

	llm := openai.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	cl := New(llm, discardLogger())
	sess := &Session{}

	resp, err := cl.Classify(context.Background(), sess, testMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Activities) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(resp.Activities))
	}
	cand := resp.Activities[0]
	if cand.Type != activity.TypeWorkout || cand.UserID != "casey" || cand.Date != "2025-07-10" {
		t.Errorf("unexpected candidate: %+v", cand)
	}
	if sess.PreviousResponseID != "resp_1" {
		t.Errorf("session not advanced: %q", sess.PreviousResponseID)
	}
}

func TestClassify_OmitsInstructionsWhenChained(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if v, ok := req["instructions"]; ok && v != "" {
			t.Errorf("expected no instructions on chained call, got %v", v)
		}
		if req["previous_response_id"] != "resp_1" {
			t.Errorf("expected previous_response_id resp_1, got %v", req["previous_response_id"])
		}
		respondWith(t, w, "resp_2", Response{})
	}))
	defer server.Close()

	llm := openai.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	cl := New(llm, discardLogger())
	sess := &Session{PreviousResponseID: "resp_1"}

	if _, err := cl.Classify(context.Background(), sess, testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.PreviousResponseID != "resp_2" {
		t.Errorf("session not advanced: %q", sess.PreviousResponseID)
	}
}

func TestClassify_BackendErrorLeavesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"type":"server_error","message":"boom"}}`)
	}))
	defer server.Close()

	llm := openai.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	cl := New(llm, discardLogger())
	sess := &Session{PreviousResponseID: "resp_1"}

	_, err := cl.Classify(context.Background(), sess, testMessage())
	if err == nil {
		t.Fatal("expected error from backend failure")
	}
	if sess.PreviousResponseID != "resp_1" {
		t.Errorf("session mutated on error: %q", sess.PreviousResponseID)
	}
}

func TestClassify_MalformedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "resp_x",
			"status": "completed",
			"output": []map[string]any{
				{
					"type": "message",
					"content": []map[string]any{
						{"type": "output_text", "text": "not json at all"},
					},
				},
			},
		})
	}))
	defer server.Close()

	llm := openai.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)

	cl := New(llm, discardLogger())
	sess := &Session{}

	if _, err := cl.Classify(context.Background(), sess, testMessage()); err == nil {
		t.Fatal("expected error for malformed output")
	}
	if sess.PreviousResponseID != "" {
		t.Errorf("session advanced on parse failure: %q", sess.PreviousResponseID)
	}
}

func TestFormatInput(t *testing.T) {
	got := formatInput(testMessage())
	want := "User ID: \"casey\"\nMessage date: 2025-07-10 08:00:00\nMessage content: \"ran 3 miles this morning\"\n"
	if got != want {
		t.Errorf("formatInput = %q, want %q", got, want)
	}
}

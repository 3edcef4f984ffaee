package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"exam-grading-service/internal/domain"
	"exam-grading-service/internal/infra/memory"
	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T, store *memory.Store, queue *memory.Queue, cache *memory.LeaderboardCache) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler := NewHandler(queue, store, nil)
	if cache != nil {
		handler = NewHandler(queue, store, cache)
	}
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestEnqueueEndpoints(t *testing.T) {
	store := memory.NewStore()
	queue := memory.NewQueue(8)
	server := newTestServer(t, store, queue, nil)

	resp, err := http.Post(server.URL+"/internal/grading", "application/json", nil)
	if err != nil {
		t.Fatalf("post grading: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	resp, err = http.Post(server.URL+"/internal/rankings/5", "application/json", nil)
	if err != nil {
		t.Fatalf("post ranking: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	if queue.Len() != 2 {
		t.Fatalf("expected 2 queued tasks, got %d", queue.Len())
	}
}

func TestEnqueueRankingRejectsBadExamID(t *testing.T) {
	server := newTestServer(t, memory.NewStore(), memory.NewQueue(8), nil)

	resp, err := http.Post(server.URL+"/internal/rankings/abc", "application/json", nil)
	if err != nil {
		t.Fatalf("post ranking: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAttemptScore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	server := newTestServer(t, store, memory.NewQueue(8), nil)

	attempt := store.AddAttempt(1, 1)

	var body struct {
		AttemptID int64   `json:"attemptId"`
		Score     *string `json:"score"`
	}
	getJSON(t, server.URL+"/attempts/1/score", http.StatusOK, &body)
	if body.AttemptID != attempt || body.Score != nil {
		t.Fatalf("expected ungraded attempt, got %+v", body)
	}

	if err := store.SetAttemptScore(ctx, attempt, decimal.NewFromInt(3)); err != nil {
		t.Fatalf("set score: %v", err)
	}
	getJSON(t, server.URL+"/attempts/1/score", http.StatusOK, &body)
	if body.Score == nil || *body.Score != "3" {
		t.Fatalf("expected score 3, got %+v", body.Score)
	}

	resp, err := http.Get(server.URL + "/attempts/99/score")
	if err != nil {
		t.Fatalf("get missing attempt: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLeaderboardPrefersCache(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cache := memory.NewLeaderboardCache()
	server := newTestServer(t, store, memory.NewQueue(8), cache)

	// Only the cache holds exam 1; only the store holds exam 2.
	cached := domain.Leaderboard{ExamID: 1, Entries: []domain.RankingEntry{
		{Position: 1, UserID: 9, AttemptID: 90, Score: decimal.NewFromInt(8)},
	}}
	if err := cache.Put(ctx, cached); err != nil {
		t.Fatalf("cache put: %v", err)
	}
	attempt := store.AddAttempt(2, 2)
	if err := store.SetAttemptScore(ctx, attempt, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("set score: %v", err)
	}
	if err := store.ReplaceLeaderboard(ctx, 2, []domain.RankingEntry{
		{Position: 1, UserID: 2, AttemptID: attempt, Score: decimal.NewFromInt(5)},
	}); err != nil {
		t.Fatalf("replace leaderboard: %v", err)
	}

	var lb domain.Leaderboard
	getJSON(t, server.URL+"/exams/1/leaderboard", http.StatusOK, &lb)
	if lb.ExamID != 1 || len(lb.Entries) != 1 || lb.Entries[0].UserID != 9 {
		t.Fatalf("expected cached leaderboard, got %+v", lb)
	}

	getJSON(t, server.URL+"/exams/2/leaderboard", http.StatusOK, &lb)
	if lb.ExamID != 2 || len(lb.Entries) != 1 || lb.Entries[0].UserID != 2 {
		t.Fatalf("expected stored leaderboard, got %+v", lb)
	}

	resp, err := http.Get(server.URL + "/exams/3/leaderboard")
	if err != nil {
		t.Fatalf("get missing leaderboard: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func getJSON(t *testing.T, url string, wantStatus int, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("get %s: expected %d, got %d", url, wantStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

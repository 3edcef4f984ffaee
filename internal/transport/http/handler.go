package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"exam-grading-service/internal/app"
	"exam-grading-service/internal/domain"
)

// Handler exposes the pipeline's trigger points and read paths. It is
// deliberately thin: authentication and the CRUD surface live in the
// main platform API, not here.
type Handler struct {
	queue app.TaskQueue
	reads app.ReadStore
	cache app.LeaderboardCache // optional
}

func NewHandler(queue app.TaskQueue, reads app.ReadStore, cache app.LeaderboardCache) *Handler {
	return &Handler{queue: queue, reads: reads, cache: cache}
}

// Register wires the handler's routes into mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/internal/grading", h.enqueueGrading)
	mux.HandleFunc("/internal/rankings/", h.enqueueRanking)
	mux.HandleFunc("/attempts/", h.attemptScore)
	mux.HandleFunc("/exams/", h.leaderboard)
}

type messageResponse struct {
	Message string `json:"message"`
}

type attemptScoreResponse struct {
	AttemptID int64   `json:"attemptId"`
	Score     *string `json:"score"`
}

// enqueueGrading schedules a grading pass; the platform calls this when
// an attempt is marked completed.
func (h *Handler) enqueueGrading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.queue.EnqueueGrading(r.Context()); err != nil {
		log.Printf("http: enqueue grading failed: %v", err)
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: "grading scheduled"})
}

// enqueueRanking forces a leaderboard rebuild for one exam.
func (h *Handler) enqueueRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	examID, ok := pathID(r.URL.Path, "/internal/rankings/")
	if !ok {
		http.Error(w, "invalid exam id", http.StatusBadRequest)
		return
	}
	if err := h.queue.EnqueueRanking(r.Context(), examID); err != nil {
		log.Printf("http: enqueue ranking for exam %d failed: %v", examID, err)
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: "ranking rebuild scheduled"})
}

// attemptScore serves GET /attempts/{id}/score. Score is null until the
// grading job has processed the attempt.
func (h *Handler) attemptScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/attempts/")
	idPart, ok := strings.CutSuffix(rest, "/score")
	if !ok {
		http.NotFound(w, r)
		return
	}
	attemptID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		http.Error(w, "invalid attempt id", http.StatusBadRequest)
		return
	}

	attempt, err := h.reads.GetAttempt(r.Context(), attemptID)
	if err != nil {
		if errors.Is(err, domain.ErrAttemptNotFound) {
			http.Error(w, "attempt not found", http.StatusNotFound)
			return
		}
		log.Printf("http: get attempt %d failed: %v", attemptID, err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	resp := attemptScoreResponse{AttemptID: attempt.ID}
	if attempt.Score != nil {
		s := attempt.Score.String()
		resp.Score = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

// leaderboard serves GET /exams/{id}/leaderboard, preferring the cache
// and falling back to the store.
func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/exams/")
	idPart, ok := strings.CutSuffix(rest, "/leaderboard")
	if !ok {
		http.NotFound(w, r)
		return
	}
	examID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		http.Error(w, "invalid exam id", http.StatusBadRequest)
		return
	}

	if h.cache != nil {
		if lb, err := h.cache.Get(r.Context(), examID); err == nil {
			writeJSON(w, http.StatusOK, lb)
			return
		} else if !errors.Is(err, domain.ErrLeaderboardNotCached) {
			log.Printf("http: leaderboard cache read for exam %d failed: %v", examID, err)
		}
	}

	lb, err := h.reads.GetLeaderboard(r.Context(), examID)
	if err != nil {
		if errors.Is(err, domain.ErrRankingNotFound) {
			http.Error(w, "leaderboard not found", http.StatusNotFound)
			return
		}
		log.Printf("http: get leaderboard for exam %d failed: %v", examID, err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func pathID(path, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: write response failed: %v", err)
	}
}

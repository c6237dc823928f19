package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/ranking"
)

// RankingHandler serves the REST leaderboard API:
//
//	GET  /api/ranking?region=<tag>&type=daily|all_time&format=<format>
//	POST /api/ranking {nickname, score, region?, format?}
type RankingHandler struct {
	service *ranking.Service
}

func NewRankingHandler(service *ranking.Service) *RankingHandler {
	return &RankingHandler{service: service}
}

func (h *RankingHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getRanking(w, r)
	case http.MethodPost:
		h.submitScore(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (h *RankingHandler) getRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.service.GetRanking(r.Context(),
		q.Get("region"),
		domain.QuizFormat(q.Get("format")),
		domain.RankingMode(q.Get("type")),
	)
	if err != nil {
		h.writeStorageError(w, "failed to fetch ranking", err)
		return
	}
	if entries == nil {
		entries = []domain.RankedEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ranking": entries})
}

func (h *RankingHandler) submitScore(w http.ResponseWriter, r *http.Request) {
	var sub ranking.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	receipt, err := h.service.SubmitScore(r.Context(), sub)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return
		}
		h.writeStorageError(w, "failed to submit score", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"data":    receipt,
		"message": "score submitted successfully",
	})
}

func (h *RankingHandler) writeStorageError(w http.ResponseWriter, msg string, err error) {
	log.Printf("%s: %v", msg, err)
	details := err.Error()
	var serr *domain.StorageError
	if errors.As(err, &serr) {
		details = serr.Err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   msg,
		"details": details,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

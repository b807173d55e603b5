package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"ai-interview-service/internal/service/interview"
	"ai-interview-service/internal/store"
)

// maxAudioUploadBytes bounds the multipart form held in memory.
const maxAudioUploadBytes = 25 << 20

// Handlers holds the HTTP handlers for the interview API.
type Handlers struct {
	service *interview.Service
}

// StartInterview creates a new interview session.
func (h *Handlers) StartInterview(w http.ResponseWriter, r *http.Request) {
	var req interview.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Start(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ProcessAudio accepts one multipart audio recording and runs a turn.
func (h *Handlers) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	result, err := h.service.ProcessAudio(r.Context(), sessionID, audio)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GenerateFeedback evaluates a finished interview and completes it.
func (h *Handlers) GenerateFeedback(w http.ResponseWriter, r *http.Request) {
	var req interview.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.GenerateFeedback(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// History returns the authenticated user's paginated interview history.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	q := store.HistoryQuery{
		Page:       intQuery(r, "page"),
		PageSize:   intQuery(r, "pageSize"),
		Difficulty: r.URL.Query().Get("difficulty"),
		Role:       r.URL.Query().Get("role"),
		Status:     r.URL.Query().Get("status"),
		SortBy:     r.URL.Query().Get("sortBy"),
		SortOrder:  r.URL.Query().Get("sortOrder"),
	}

	result, err := h.service.History(r.Context(), userID, q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func intQuery(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

// writeServiceError maps workflow errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interview.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "interview session not found")
	case errors.Is(err, interview.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "interview is already completed")
	default:
		log.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quiz-training-service/internal/app"
	"quiz-training-service/internal/domain"

	"github.com/gorilla/websocket"
)

// Handler exposes the training use cases over JSON HTTP plus a read-only
// websocket feed of leaderboard score updates.
type Handler struct {
	training  *app.TrainingService
	scorer    *app.LeaderboardScorer
	questions app.QuestionStore
	upgrader  websocket.Upgrader
}

func NewHandler(training *app.TrainingService, scorer *app.LeaderboardScorer, questions app.QuestionStore) *Handler {
	return &Handler{
		training:  training,
		scorer:    scorer,
		questions: questions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /courses/{courseID}/training/attempts", h.submitAttempt)
	mux.HandleFunc("GET /courses/{courseID}/training/questions", h.trainingPage)
	mux.HandleFunc("GET /courses/{courseID}/training/available", h.available)
	mux.HandleFunc("GET /courses/{courseID}/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /courses/{courseID}/league", h.league)
	mux.HandleFunc("GET /courses/{courseID}/leaderboard/ws", h.serveScoreFeed)
}

type submitAttemptRequest struct {
	UserID     string     `json:"userId"`
	QuestionID string     `json:"questionId"`
	OptionID   string     `json:"optionId"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("courseID")

	var req submitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.QuestionID == "" {
		http.Error(w, "missing userId or questionId", http.StatusBadRequest)
		return
	}

	question, err := h.questions.FindByID(r.Context(), req.QuestionID)
	if err != nil {
		writeError(w, err)
		return
	}

	answeredAt := time.Now()
	if req.AnsweredAt != nil {
		answeredAt = *req.AnsweredAt
	}

	err = h.training.SubmitAttempt(r.Context(), question, req.UserID, courseID, domain.AnswerSubmission{
		QuestionID: req.QuestionID,
		OptionID:   req.OptionID,
	}, answeredAt)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) trainingPage(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("courseID")
	query := r.URL.Query()

	userID := query.Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	page := domain.PageSpec{
		Offset: intQuery(query.Get("offset"), 0),
		Size:   intQuery(query.Get("size"), 10),
	}
	var excludeIDs []string
	if raw := query.Get("exclude"); raw != "" {
		excludeIDs = strings.Split(raw, ",")
	}
	isNewSession := query.Get("newSession") == "true"

	result, err := h.training.GetTrainingPage(r.Context(), courseID, userID, page, excludeIDs, isNewSession)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	ok, err := h.training.HasQuestionsAvailableForTraining(r.Context(), r.PathValue("courseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"available": ok})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	ranked, err := h.scorer.GetLeaderboard(r.Context(), userID, r.PathValue("courseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, ranked)
}

func (h *Handler) league(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	leagueID, err := h.scorer.GetLeague(r.Context(), userID, r.PathValue("courseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"leagueId": leagueID})
}

// feedMessage is the envelope for every frame on the score feed. The first
// frame is always type "subscribed"; after that clients only see
// "scoreUpdate" frames.
type feedMessage struct {
	Type     string              `json:"type"`
	CourseID string              `json:"courseId,omitempty"`
	Update   *domain.ScoreUpdate `json:"update,omitempty"`
}

// serveScoreFeed upgrades to a websocket and streams score updates for a
// course until the client disconnects. A "subscribed" frame confirms the
// subscription is live; updates published after the client reads it are
// guaranteed to be delivered.
func (h *Handler) serveScoreFeed(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("courseID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.scorer.Subscribe(courseID)
	defer cancel()

	if err := conn.WriteJSON(feedMessage{Type: "subscribed", CourseID: courseID}); err != nil {
		log.Printf("ws write error: %v", err)
		return
	}

	readerGone := make(chan struct{})
	go func() {
		defer close(readerGone)
		for {
			// The feed is one-directional; reads only detect disconnects.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(feedMessage{Type: "scoreUpdate", Update: &update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerGone:
			return
		}
	}
}

// writeError maps domain error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrLeaderboardEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrProgressConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
		return v
	}
	return fallback
}

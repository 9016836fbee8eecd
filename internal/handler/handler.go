package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/historia/internal/handler/views"
	appI18n "github.com/pavelanni/historia/internal/i18n"
	"github.com/pavelanni/historia/internal/model"
	"github.com/pavelanni/historia/internal/quiz"
)

// notice is a status line message, localized when the page renders.
type notice struct {
	id   string
	data map[string]any
}

// Handler drives the single quiz session of this process from HTTP requests.
type Handler struct {
	mu       sync.Mutex
	session  *quiz.Session
	config   model.GameConfig
	feedback *views.Feedback
	notice   *notice
}

// New creates a new Handler.
func New(s *quiz.Session, cfg model.GameConfig) *Handler {
	return &Handler{session: s, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/period/{index}", h.handleSelectPeriod)
	r.Post("/answer", h.handleAnswer)
	r.Post("/advance", h.handleAdvance)
	r.Post("/new", h.handleNewGame)
	r.Post("/resume", h.handleResume)
	r.Post("/score", h.handleScore)
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	view, err := h.indexView(r.Context())
	h.mu.Unlock()
	if err != nil {
		slog.Error("build page", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.IndexPage(view).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) indexView(ctx context.Context) (views.IndexView, error) {
	q, err := h.session.CurrentQuestion()
	if err != nil {
		return views.IndexView{}, err
	}
	v := views.IndexView{
		Periods:        h.session.Catalog().Periods(),
		Status:         h.session.Status(),
		Question:       q,
		Feedback:       h.feedback,
		AdvanceDelayMs: h.config.AdvanceDelay.Milliseconds(),
	}
	if h.notice != nil {
		v.Notice = appI18n.Td(ctx, h.notice.id, h.notice.data)
	}
	return v, nil
}

func (h *Handler) handleSelectPeriod(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid period index", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.session.SelectPeriod(index); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.feedback = nil
	h.notice = nil
	slog.Info("period selected", "period", index)
	h.redirectHome(w, r)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	option := r.FormValue("option")

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feedback != nil {
		http.Error(w, "answer already submitted", http.StatusConflict)
		return
	}
	res, err := h.session.SubmitAnswer(option)
	if errors.Is(err, quiz.ErrInvalidState) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("submit answer", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.notice = nil
	if h.session.IsGameOver() {
		h.feedback = nil
	} else {
		h.feedback = &views.Feedback{Correct: res.Correct, Text: res.Feedback, LivesRemaining: res.LivesRemaining}
	}
	if res.Saved {
		h.notice = &notice{id: "GameSaved"}
	}
	slog.Debug("answer submitted", "correct", res.Correct, "lives", res.LivesRemaining, "score", res.Score)
	h.redirectHome(w, r)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feedback == nil {
		// A stale auto-submit after a reset or a second tab; nothing to advance.
		h.redirectHome(w, r)
		return
	}
	err := h.session.Advance()
	if errors.Is(err, quiz.ErrInvalidState) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("advance", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.feedback = nil
	if h.session.IsPeriodComplete() {
		h.notice = &notice{id: "GameSaved"}
		slog.Info("period complete", "score", h.session.Score())
	}
	h.redirectHome(w, r)
}

func (h *Handler) handleNewGame(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.session.NewGame(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.feedback = nil
	h.notice = &notice{id: "NewGameStarted"}
	h.redirectHome(w, r)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ok, err := h.session.Resume()
	switch {
	case errors.Is(err, quiz.ErrDeserialization):
		slog.Warn("saved game unreadable", "error", err)
		h.notice = &notice{id: "SavedGameBroken"}
	case err != nil:
		slog.Error("resume", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	case !ok:
		h.notice = &notice{id: "NoSavedGame"}
	default:
		h.feedback = nil
		h.notice = &notice{id: "GameLoaded"}
	}
	h.redirectHome(w, r)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notice = &notice{id: "CurrentScore", data: map[string]any{"Score": h.session.Score()}}
	h.redirectHome(w, r)
}

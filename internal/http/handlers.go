// Package http serves the server-rendered chat UI and a small JSON API on
// top of the conversation engine.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"feverscan/internal/auth"
	"feverscan/internal/engine"
	"feverscan/internal/ratelimit"
	"feverscan/pkg"
)

//go:embed templates/*.html
var templateFS embed.FS

// Adviser is what the server hands each new engine; see engine.Adviser.
type Adviser = engine.Adviser

// Store is the persistence surface the handlers need: the engine's history
// store plus the activity counters shown on the history page.  Satisfied by
// *db.Repository.
type Store interface {
	engine.HistoryStore
	GetActivity(ctx context.Context, userID string) (*pkg.UserActivity, error)
}

// Config is the handler-level configuration.
type Config struct {
	RateWindow    time.Duration
	RateBudget    int
	HistoryLimit  int
	SessionCookie string
}

// session is one signed-in browser: its engine and account name.  The engine
// is single-user state; mu serializes handler access so one action fully
// resolves before the next touches it.
type session struct {
	mu       sync.Mutex
	engine   *engine.Engine
	username string
}

// Server bundles the dependencies required by the HTTP handlers.
type Server struct {
	repo    Store
	auth    *auth.Service
	adviser Adviser
	cfg     Config
	tmpl    *template.Template
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer constructs a Server with templates parsed from the embedded FS.
func NewServer(repo Store, authSvc *auth.Service, adviser Adviser, cfg Config, log *slog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "feverscan_session"
	}
	return &Server{
		repo:     repo,
		auth:     authSvc,
		adviser:  adviser,
		cfg:      cfg,
		tmpl:     tmpl,
		log:      log,
		sessions: make(map[string]*session),
	}, nil
}

// Router builds the chi router for the server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.handleIndex)
	r.Get("/signin", s.handleSignInPage)
	r.Post("/signin", s.handleSignIn)
	r.Get("/signup", s.handleSignUpPage)
	r.Post("/signup", s.handleSignUp)
	r.Post("/signout", s.handleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/chat", s.handleChatPage)
		r.Post("/chat/answer", s.handleAnswer)
		r.Post("/chat/followup", s.handleFollowup)
		r.Post("/chat/restart", s.handleRestart)
		r.Get("/history", s.handleHistoryPage)
		r.Post("/history/resume", s.handleResume)

		r.Get("/api/transcript", s.handleTranscriptAPI)
		r.Get("/api/history", s.handleHistoryAPI)
	})
	return r
}

// newEngine creates a fresh engine with its own per-session rate limiter.
func (s *Server) newEngine() *engine.Engine {
	return engine.New(s.adviser, ratelimit.New(s.cfg.RateWindow, s.cfg.RateBudget), s.repo, s.log)
}

type ctxKey string

const sessionKey ctxKey = "session"

// requireSession redirects anonymous requests to the sign-in page.  API
// paths get a 401 instead.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessionFor(r)
		if sess == nil {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func (s *Server) sessionFor(r *http.Request) *session {
	c, err := r.Cookie(s.cfg.SessionCookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[c.Value]
}

func sessionFrom(r *http.Request) *session {
	sess, _ := r.Context().Value(sessionKey).(*session)
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.sessionFor(r) != nil {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// authPageData feeds the sign-in and sign-up templates.
type authPageData struct {
	Error string
}

func (s *Server) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "signin.html", authPageData{})
}

// handleSignIn checks credentials and opens a fresh conversation session.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	ok, err := s.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		s.log.Error("sign-in lookup failed", "error", err)
		s.render(w, "signin.html", authPageData{Error: "Terjadi kesalahan, coba lagi."})
		return
	}
	if !ok {
		s.render(w, "signin.html", authPageData{Error: "Username atau password salah."})
		return
	}

	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = &session{engine: s.newEngine(), username: username}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (s *Server) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "signup.html", authPageData{})
}

// handleSignUp registers an account and sends the user to sign in.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	err := s.auth.Register(r.Context(),
		r.FormValue("username"), r.FormValue("password"), r.FormValue("confirm"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
	case errors.Is(err, auth.ErrFieldsRequired):
		s.render(w, "signup.html", authPageData{Error: "Semua kolom wajib diisi."})
	case errors.Is(err, auth.ErrPasswordMismatch):
		s.render(w, "signup.html", authPageData{Error: "Konfirmasi password tidak cocok."})
	case errors.Is(err, auth.ErrUsernameTaken):
		s.render(w, "signup.html", authPageData{Error: "Username sudah digunakan."})
	default:
		s.log.Error("sign-up failed", "error", err)
		s.render(w, "signup.html", authPageData{Error: "Terjadi kesalahan, coba lagi."})
	}
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cfg.SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: s.cfg.SessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// chatPageData feeds the chat template: the transcript plus whatever input
// controls the current phase needs.
type chatPageData struct {
	Username   string
	Transcript []pkg.Message
	Phase      pkg.Phase
	Question   pkg.Question
	HasOptions bool
	InFollowup bool
	Notice     string
}

// chatData snapshots the page data for a session.  Callers hold sess.mu.
func (s *Server) chatData(sess *session, notice string) chatPageData {
	data := chatPageData{
		Username:   sess.username,
		Transcript: sess.engine.Transcript(),
		Phase:      sess.engine.Phase(),
		InFollowup: sess.engine.Phase() == pkg.PhaseFollowup,
		Notice:     notice,
	}
	if q, ok := sess.engine.CurrentQuestion(); ok {
		data.Question = q
		data.HasOptions = true
	}
	return data
}

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.mu.Lock()
	data := s.chatData(sess, "")
	sess.mu.Unlock()
	s.render(w, "chat.html", data)
}

// handleAnswer accepts a quick-reply option or freeform text for the active
// intake question.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	opt := r.FormValue("option")
	idx := 0
	if opt != "" {
		var parseErr error
		idx, parseErr = strconv.Atoi(opt)
		if parseErr != nil {
			http.Error(w, "invalid option", http.StatusBadRequest)
			return
		}
	}

	sess.mu.Lock()
	var err error
	if opt != "" {
		_, err = sess.engine.SelectOption(r.Context(), idx)
	} else {
		_, err = sess.engine.SubmitFreeform(r.Context(), r.FormValue("text"))
	}
	data := s.chatData(sess, noticeFor(err))
	sess.mu.Unlock()
	s.render(w, "chat.html", data)
}

// handleFollowup accepts an open question (or the restart sentinel) in the
// follow-up phase.
func (s *Server) handleFollowup(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess.mu.Lock()
	_, err := sess.engine.SubmitFollowup(r.Context(), r.FormValue("text"))
	data := s.chatData(sess, noticeFor(err))
	sess.mu.Unlock()
	s.render(w, "chat.html", data)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.mu.Lock()
	sess.engine.Restart()
	sess.mu.Unlock()
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// noticeFor maps engine rejections to user-facing notices; the state machine
// guarantees the transcript is already consistent.
func noticeFor(err error) string {
	var rl *engine.RateLimitedError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrEmptyInput):
		return "Jawaban tidak boleh kosong, silakan isi terlebih dahulu."
	case errors.As(err, &rl):
		return fmt.Sprintf("Terlalu banyak permintaan. Coba lagi dalam %d detik.", int(rl.Wait.Seconds())+1)
	case errors.Is(err, engine.ErrWrongPhase):
		return "Aksi tidak tersedia pada tahap ini."
	default:
		return "Input tidak valid."
	}
}

// historyPageData feeds the history template.
type historyPageData struct {
	Username string
	Records  []pkg.HistoryRecord
	Activity *pkg.UserActivity
	Error    string
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	data := historyPageData{Username: sess.username}

	sess.mu.Lock()
	userID := sess.engine.UserID()
	sess.mu.Unlock()

	records, err := s.repo.Recent(r.Context(), userID, s.cfg.HistoryLimit)
	if err != nil {
		s.log.Warn("history query failed", "error", err)
		data.Error = "Riwayat tidak dapat dimuat saat ini."
	}
	data.Records = records
	if activity, err := s.repo.GetActivity(r.Context(), userID); err == nil {
		data.Activity = activity
	}
	s.render(w, "history.html", data)
}

// handleResume rehydrates the session's engine from a chosen history record.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	userID := sess.engine.UserID()
	sess.mu.Unlock()

	records, err := s.repo.Recent(r.Context(), userID, s.cfg.HistoryLimit)
	if err != nil {
		http.Error(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	for _, rec := range records {
		if rec.ID == id {
			resumed := engine.Resume(s.adviser,
				ratelimit.New(s.cfg.RateWindow, s.cfg.RateBudget), s.repo, rec, s.log)
			sess.mu.Lock()
			sess.engine = resumed
			sess.mu.Unlock()
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}
	}
	http.NotFound(w, r)
}

// handleTranscriptAPI returns the live transcript as JSON.
func (s *Server) handleTranscriptAPI(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.mu.Lock()
	resp := map[string]any{
		"user_id":    sess.engine.UserID(),
		"phase":      sess.engine.Phase(),
		"transcript": sess.engine.Transcript(),
	}
	sess.mu.Unlock()
	writeJSON(w, resp)
}

// handleHistoryAPI returns the recent records as JSON.
func (s *Server) handleHistoryAPI(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.mu.Lock()
	userID := sess.engine.UserID()
	sess.mu.Unlock()
	records, err := s.repo.Recent(r.Context(), userID, s.cfg.HistoryLimit)
	if err != nil {
		http.Error(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, records)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template render failed", "template", name, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

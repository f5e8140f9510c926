// Package apitest runs an in-process stand-in for the backend REST
// API so client and editor tests can exercise the real wire path.
// State lives in memory and resets with the server.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/brightleaf/storyline/internal/api"
)

const hmacSecret = "apitest-secret"

type Server struct {
	URL string

	mu         sync.Mutex
	users      map[string]user // username -> bcrypt hash + role
	storyDraft *api.StoryDoc
	quizDraft  *api.QuizDoc
	stories    map[string]api.StoryDoc
	quizzes    map[string]api.QuizDoc
	published  map[string]bool
	progress   []api.ProgressUpdate
	updates    []api.Update
	exports    map[string][]byte
	assets     int
	seq        int
	submits    int
	failSaves  bool

	httpSrv *httptest.Server
}

type user struct {
	hash []byte
	role string
}

func New() *Server {
	s := &Server{
		users:     map[string]user{},
		stories:   map[string]api.StoryDoc{},
		quizzes:   map[string]api.QuizDoc{},
		published: map[string]bool{},
		exports:   map[string][]byte{},
	}
	s.httpSrv = httptest.NewServer(s.router())
	s.URL = s.httpSrv.URL
	return s
}

func (s *Server) Close() { s.httpSrv.Close() }

// SeedUser registers login credentials.
func (s *Server) SeedUser(username, password, role string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.mu.Lock()
	s.users[username] = user{hash: hash, role: role}
	s.mu.Unlock()
}

// SeedUpdate queues a dashboard record for polling.
func (s *Server) SeedUpdate(typ, message string) {
	s.mu.Lock()
	s.seq++
	s.updates = append(s.updates, api.Update{
		ID: int64(s.seq), Type: typ, Message: message, CreatedAt: time.Now().Unix(),
	})
	s.mu.Unlock()
}

// SeedExport installs a binary payload for GET /api/export/{what}.
func (s *Server) SeedExport(what string, data []byte) {
	s.mu.Lock()
	s.exports[what] = data
	s.mu.Unlock()
}

// Token mints a valid bearer token without going through login.
func Token(sub, role string) string {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(8 * time.Hour)),
	})
	tok, _ := t.SignedString([]byte(hmacSecret))
	return tok
}

// Progress returns every progress update received so far.
func (s *Server) Progress() []api.ProgressUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.ProgressUpdate(nil), s.progress...)
}

// StoryDraft returns the last autosaved story draft, or nil.
func (s *Server) StoryDraft() *api.StoryDoc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storyDraft
}

// SetStoryDraft installs a draft for load tests.
func (s *Server) SetStoryDraft(doc api.StoryDoc) {
	s.mu.Lock()
	s.storyDraft = &doc
	s.mu.Unlock()
}

func (s *Server) Quiz(id string) (api.QuizDoc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[id]
	return q, ok
}

func (s *Server) Published(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published[id]
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Post("/auth/login", s.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireBearer)

		pr.Post("/api/teacher/story_draft", s.handleSaveStoryDraft)
		pr.Get("/api/teacher/story_draft", s.handleLoadStoryDraft)
		pr.Post("/api/teacher/quiz_draft", s.handleSaveQuizDraft)
		pr.Get("/api/teacher/quiz_draft", s.handleLoadQuizDraft)

		pr.Post("/api/teacher/stories", s.handleSaveStory)
		pr.Post("/api/teacher/quizzes", s.handleSaveQuiz)
		pr.Post("/api/teacher/stories/{id}/publish", s.handlePublish)
		pr.Post("/api/teacher/quizzes/{id}/publish", s.handlePublish)

		pr.Post("/api/progress", s.handleProgress)
		pr.Post("/api/quizzes/{id}/submit", s.handleSubmit)
		pr.Post("/api/assets/{kind}", s.handleUpload)

		pr.Get("/api/updates", s.handleUpdates)
		pr.Post("/api/notifications/{id}/read", s.handleMarkRead)
		pr.Post("/api/notifications/read_all", s.handleMarkAllRead)
		pr.Get("/api/export/{what}", s.handleExport)
	})

	return r
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		_, err := jwt.Parse(strings.TrimPrefix(h, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			return []byte(hmacSecret), nil
		})
		if err != nil {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"token": Token(req.Username, u.role)})
}

// SetFailSaves makes draft/progress/submit endpoints answer 503, for
// offline-fallback tests.
func (s *Server) SetFailSaves(v bool) {
	s.mu.Lock()
	s.failSaves = v
	s.mu.Unlock()
}

// SubmitCount reports how many quiz submissions reached the server.
func (s *Server) SubmitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submits
}

// StoryCount reports how many permanent stories were stored.
func (s *Server) StoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stories)
}

func (s *Server) failing(w http.ResponseWriter) bool {
	s.mu.Lock()
	failing := s.failSaves
	s.mu.Unlock()
	if failing {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}
	return failing
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *Server) handleSaveStoryDraft(w http.ResponseWriter, r *http.Request) {
	if s.failing(w) {
		return
	}
	var doc api.StoryDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if doc.ID == "" {
		doc.ID = s.nextID("draft")
	}
	s.storyDraft = &doc
	id := doc.ID
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (s *Server) handleLoadStoryDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.storyDraft
	s.mu.Unlock()
	if doc == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_ = json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleSaveQuizDraft(w http.ResponseWriter, r *http.Request) {
	if s.failing(w) {
		return
	}
	var doc api.QuizDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if doc.ID == "" {
		doc.ID = s.nextID("draft")
	}
	s.quizDraft = &doc
	id := doc.ID
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (s *Server) handleLoadQuizDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := s.quizDraft
	s.mu.Unlock()
	if doc == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_ = json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleSaveStory(w http.ResponseWriter, r *http.Request) {
	if s.failing(w) {
		return
	}
	var doc api.StoryDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if doc.ID == "" {
		doc.ID = s.nextID("story")
	}
	s.stories[doc.ID] = doc
	id := doc.ID
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"story_id": id})
}

func (s *Server) handleSaveQuiz(w http.ResponseWriter, r *http.Request) {
	if s.failing(w) {
		return
	}
	var doc api.QuizDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if doc.ID == "" {
		doc.ID = s.nextID("quiz")
	}
	s.quizzes[doc.ID] = doc
	id := doc.ID
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"quiz_id": id})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	s.published[id] = true
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.failing(w) {
		return
	}
	var p api.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.progress = append(s.progress, p)
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.failing(w) {
		return
	}
	var sub api.QuizSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	sub.QuizID = chi.URLParam(r, "id")

	s.mu.Lock()
	s.submits++
	q, ok := s.quizzes[sub.QuizID]
	s.mu.Unlock()

	var score, max float64
	if ok {
		for _, question := range q.Questions {
			max += float64(question.Points)
			if sub.Answers[question.ID] == question.CorrectAnswer {
				score += float64(question.Points)
			}
		}
	}
	passed := ok && max > 0 && score/max*100 >= float64(q.PassingScore)
	_ = json.NewEncoder(w).Encode(api.QuizResult{Score: score, MaxScore: max, Passed: passed})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer f.Close()
	s.mu.Lock()
	s.assets++
	n := s.assets
	s.mu.Unlock()
	url := "/static/uploads/" + kind + "/" + strconv.Itoa(n) + "-" + hdr.Filename
	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	s.mu.Lock()
	var out []api.Update
	for _, u := range s.updates {
		if u.ID > since {
			out = append(out, u)
		}
	}
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	for i := range s.updates {
		if s.updates[i].ID == id {
			s.updates[i].Read = true
		}
	}
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for i := range s.updates {
		s.updates[i].Read = true
	}
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	what := chi.URLParam(r, "what")
	s.mu.Lock()
	data, ok := s.exports[what]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

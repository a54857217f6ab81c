// Package server exposes sessions over JSON HTTP for browser front ends.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"luthier/debug"
	"luthier/generation"
	"luthier/rhythm"
	"luthier/sequencer"
	"luthier/theory"
)

var errNoSession = errors.New("session not found")

// Server holds sessions keyed by uuid
type Server struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sequencer.Session

	Defaults sequencer.Settings
	Provider generation.Provider

	// NewRand seeds each session's random source
	NewRand func() sequencer.Rand

	router *mux.Router
}

func New(defaults sequencer.Settings, provider generation.Provider) *Server {
	s := &Server{
		sessions: make(map[uuid.UUID]*sequencer.Session),
		Defaults: defaults,
		Provider: provider,
		NewRand: func() sequencer.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/sessions", s.handleCreate).Methods("POST")
	router.HandleFunc("/sessions/{id}", s.handleGet).Methods("GET")
	router.HandleFunc("/sessions/{id}", s.handleDelete).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/progression", s.handleLoad).Methods("PUT")
	router.HandleFunc("/sessions/{id}/progression", s.handleReset).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/generate", s.handleGenerate).Methods("POST")
	router.HandleFunc("/sessions/{id}/steps/{index:[0-9]+}/toggle", s.handleToggle).Methods("POST")
	router.HandleFunc("/sessions/{id}/steps/{index:[0-9]+}/note", s.handleNote).Methods("PUT")
	router.HandleFunc("/sessions/{id}/steps/{index:[0-9]+}/gate", s.handleGate).Methods("PUT")
	router.HandleFunc("/sessions/{id}/steps/{index:[0-9]+}/options", s.handleOptions).Methods("GET")
	router.HandleFunc("/sessions/{id}/pulses", s.handlePulses).Methods("PUT")
	router.HandleFunc("/sessions/{id}/randomize", s.handleRandomize).Methods("POST")
	router.HandleFunc("/sessions/{id}/settings", s.handleSettings).Methods("PUT")

	router.HandleFunc("/scales/{root}/{mode}", s.handleScale).Methods("GET")
	router.HandleFunc("/rhythm/euclid", s.handleEuclid).Methods("GET")
	router.HandleFunc("/chords/detect", s.handleDetect).Methods("GET")

	s.router = router
}

// Handler returns the router wrapped for cross-origin browser clients
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) ListenAndServe(addr string) error {
	debug.Log("server", "listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Log("server", "encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	debug.Log("server", "%d: %v", status, err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoSession):
		return http.StatusNotFound
	case errors.Is(err, sequencer.ErrEmptyProgression),
		errors.Is(err, sequencer.ErrRestingStep):
		return http.StatusConflict
	case errors.Is(err, sequencer.ErrInvalidShape),
		errors.Is(err, sequencer.ErrStepIndex),
		errors.Is(err, sequencer.ErrGateRange),
		errors.Is(err, generation.ErrInvalidRequest),
		errors.Is(err, theory.ErrInvalidNote),
		errors.Is(err, theory.ErrInvalidChord),
		errors.Is(err, theory.ErrInvalidMode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", sequencer.ErrInvalidShape, err)
	}
	return nil
}

func (s *Server) lookup(r *http.Request) (uuid.UUID, *sequencer.Session, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: %v", errNoSession, err)
	}
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return id, nil, fmt.Errorf("%w: %s", errNoSession, id)
	}
	return id, session, nil
}

func stepIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", sequencer.ErrStepIndex, err)
	}
	return i, nil
}

func (s *Server) respond(w http.ResponseWriter, status int, id uuid.UUID, session *sequencer.Session) {
	writeJSON(w, status, SessionResponse{ID: id.String(), State: session.State()})
}

// sessionOp runs fn against the addressed session and responds with its
// new state
func (s *Server) sessionOp(fn func(r *http.Request, session *sequencer.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, session, err := s.lookup(r)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if err := fn(r, session); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		s.respond(w, http.StatusOK, id, session)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	session := sequencer.NewSession(s.Defaults, s.NewRand())
	if r.ContentLength > 0 {
		var req SettingsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		applySettings(session, req)
	}

	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	debug.Log("server", "created session %s", id)
	s.respond(w, http.StatusCreated, id, session)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(*http.Request, *sequencer.Session) error { return nil })(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _, err := s.lookup(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(r *http.Request, session *sequencer.Session) error {
		p, err := generation.Decode(r.Body)
		if err != nil {
			return err
		}
		return session.Load(p)
	})(w, r)
}

// handleReset clears the progression but keeps the session and its settings
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(_ *http.Request, session *sequencer.Session) error {
		session.Reset()
		return nil
	})(w, r)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(r *http.Request, session *sequencer.Session) error {
		var body GenerateRequest
		if r.ContentLength > 0 {
			if err := decode(r, &body); err != nil {
				return err
			}
		}
		if s.Provider == nil {
			return errors.New("no generation provider configured")
		}
		req := generation.RequestFromSettings(session.Settings(), body.Style, body.Song)
		p, err := s.Provider.Generate(r.Context(), req)
		if err != nil {
			return err
		}
		return session.Load(p)
	})(w, r)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(r *http.Request, session *sequencer.Session) error {
		i, err := stepIndex(r)
		if err != nil {
			return err
		}
		return session.Toggle(i)
	})(w, r)
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(r *http.Request, session *sequencer.Session) error {
		i, err := stepIndex(r)
		if err != nil {
			return err
		}
		var req NoteRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return session.SetNote(i, req.Note)
	})(w, r)
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(r *http.Request, session *sequencer.Session) error {
		i, err := stepIndex(r)
		if err != nil {
			return err
		}
		var req GateRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return session.SetGate(i, req.Gate)
	})(w, r)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	_, session, err := s.lookup(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	i, err := stepIndex(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	chordTones, scaleTones, err := session.NoteOptions(i)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, NoteOptionsResponse{ChordTones: chordTones, ScaleTones: scaleTones})
}

func (s *Server) handlePulses(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(r *http.Request, session *sequencer.Session) error {
		var req PulsesRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		return session.SetPulses(req.Pulses)
	})(w, r)
}

func (s *Server) handleRandomize(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(_ *http.Request, session *sequencer.Session) error {
		return session.Randomize()
	})(w, r)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(r *http.Request, session *sequencer.Session) error {
		var req SettingsRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		applySettings(session, req)
		return nil
	})(w, r)
}

func applySettings(session *sequencer.Session, req SettingsRequest) {
	if req.Root != nil {
		session.SetRoot(*req.Root)
	}
	if req.Mode != nil {
		session.SetMode(*req.Mode)
	}
	if req.Octave != nil {
		session.SetOctave(*req.Octave)
	}
	if req.Negative != nil {
		session.SetNegative(*req.Negative)
	}
	if req.Pulses != nil {
		// an empty progression only records the setting
		_ = session.SetPulses(*req.Pulses)
	}
}

func (s *Server) handleScale(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	root, err := theory.ParseRoot(vars["root"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	mode, err := theory.ParseMode(vars["mode"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ScaleResponse{
		Root:     root.Name,
		Mode:     mode,
		Notes:    root.ScaleNames(mode),
		Playable: root.PlayableNotes(sequencer.PlayableOctaves),
	})
}

func (s *Server) handleEuclid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	steps, err := strconv.Atoi(q.Get("steps"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("steps: %w", err))
		return
	}
	pulses, err := strconv.Atoi(q.Get("pulses"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("pulses: %w", err))
		return
	}
	if steps < 0 || steps > 64 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("steps %d outside 0..64", steps))
		return
	}
	pattern := rhythm.Euclidean(steps, pulses)
	writeJSON(w, http.StatusOK, EuclidResponse{
		Steps:   steps,
		Pulses:  pulses,
		Pattern: pattern,
		Text:    rhythm.Format(pattern),
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var chords []string
	for _, c := range strings.Split(r.URL.Query().Get("chords"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			chords = append(chords, c)
		}
	}
	match, ok := theory.DetectScale(chords)
	if !ok {
		writeJSON(w, http.StatusOK, DetectResponse{})
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{
		Found: true,
		Scale: match.String(),
		Root:  match.Root.Name,
		Mode:  match.Mode.String(),
		Score: match.Score,
	})
}

// Package mock provides an in-process fake of the character catalog API.
//
// It serves the same REST and GraphQL shapes as the public service from a
// deterministic dataset, so scenarios can run without network access.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/catalog"
)

const (
	msgCharacterNotFound = "Character not found"
	msgNothingHere       = "There is nothing here"
	msgMissingID         = "Hey! you must provide an id"
)

// Server is a mock catalog server
type Server struct {
	router         *Router
	store          *Store
	port           int
	delay          time.Duration
	verbose        bool
	graphQLErrors  bool
	graphQLRewrite func(*catalog.Character)
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose enables verbose logging
func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// WithStore replaces the default dataset
func WithStore(store *Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithGraphQLNotFoundErrors makes GraphQL lookups of unknown ids answer with an
// "errors" array instead of a null character.
func WithGraphQLNotFoundErrors(enabled bool) Option {
	return func(s *Server) {
		s.graphQLErrors = enabled
	}
}

// WithGraphQLRewrite alters each character before it is rendered over GraphQL,
// letting tests make the two protocols disagree.
func WithGraphQLRewrite(fn func(*catalog.Character)) Option {
	return func(s *Server) {
		s.graphQLRewrite = fn
	}
}

// NewServer creates a new mock server
func NewServer(opts ...Option) *Server {
	s := &Server{
		router: NewRouter(),
		port:   3000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewStore(DefaultCharacters(catalog.DefaultBaseURL))
	}

	s.router.Handle("GET", catalog.CharacterPath, "list characters", s.listCharacters)
	s.router.Handle("GET", catalog.CharacterByIDPath, "get character", s.getCharacter)
	s.router.Handle("POST", catalog.GraphQLPath, "graphql", s.graphQL)
	return s
}

// Routes returns all registered routes
func (s *Server) Routes() []*Route {
	return s.router.Routes()
}

// Handler returns the server as an http.Handler, for httptest or embedding.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

// StartWithContext serves until ctx is cancelled
func (s *Server) StartWithContext(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Mock catalog starting on http://localhost:%d", s.port)
	if s.verbose {
		for _, route := range s.router.Routes() {
			log.Printf("  %s %s (%s)", route.Method, route.PathPattern, route.Name)
		}
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	route, params := s.router.Match(r.Method, r.URL.Path)
	if route == nil {
		if s.verbose {
			log.Printf("%s %s -> 404 Not Found (%s)", r.Method, r.URL.Path, time.Since(start))
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"error": msgNothingHere})
		return
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	route.Handler(rec, r, params)

	if s.verbose {
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.RequestURI(), rec.status, time.Since(start))
	}
}

func (s *Server) getCharacter(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := strconv.Atoi(params["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": msgMissingID})
		return
	}
	c, ok := s.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": msgCharacterNotFound})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listCharacters(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	status := r.URL.Query().Get("status")
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": msgNothingHere})
			return
		}
		page = n
	}

	p := s.store.List(status, page)
	if len(p.Results) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": msgNothingHere})
		return
	}

	base := requestBase(r)
	var next, prev any
	if p.HasNext() {
		next = pageURL(base, status, page+1)
	}
	if p.HasPrev() {
		prev = pageURL(base, status, page-1)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"info": map[string]any{
			"count": p.Count,
			"pages": p.Pages,
			"next":  next,
			"prev":  prev,
		},
		"results": p.Results,
	})
}

func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}


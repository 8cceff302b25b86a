// Package mockserver is a local stand-in for the identity service's token
// endpoint.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/john/playauth/internal/api"
	"gopkg.in/yaml.v3"
)

// Server answers token lookups from an in-memory phone number table
type Server struct {
	mu     sync.RWMutex
	tokens map[string]string
	logger *log.Logger
	router *mux.Router
}

// New creates a server that knows the given phone number to token table
func New(tokens map[string]string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	s := &Server{
		tokens: make(map[string]string, len(tokens)),
		logger: logger,
	}
	for phone, token := range tokens {
		s.tokens[phone] = token
	}
	s.router = s.newRouter()
	return s
}

// LoadTokens reads a YAML mapping of phone numbers to tokens
func LoadTokens(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token table: %w", err)
	}

	tokens := make(map[string]string)
	if err := yaml.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token table: %w", err)
	}
	return tokens, nil
}

// ParseTokenFlags turns "phone=token" pairs into a table
func ParseTokenFlags(pairs []string) (map[string]string, error) {
	tokens := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		phone, token, ok := strings.Cut(pair, "=")
		if !ok || phone == "" || token == "" {
			return nil, fmt.Errorf("invalid token entry %q, expected phone=token", pair)
		}
		tokens[phone] = token
	}
	return tokens, nil
}

// SetToken registers or replaces the token for a phone number
func (s *Server) SetToken(phone, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[phone] = token
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc(api.TokenPath+"{phone}", s.getAccessToken).Methods("GET")
	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) getAccessToken(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	s.mu.RLock()
	token, ok := s.tokens[phone]
	s.mu.RUnlock()

	if !ok {
		s.logger.Info("Token lookup", "status", http.StatusNotFound, "request_id", r.Header.Get("X-Request-ID"))
		http.Error(w, "user not registered", http.StatusNotFound)
		return
	}

	s.logger.Info("Token lookup", "status", http.StatusOK, "request_id", r.Header.Get("X-Request-ID"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(token))
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("Mock token server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

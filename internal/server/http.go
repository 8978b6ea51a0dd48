// Package server exposes chat sessions and the questionnaire over HTTP.
// Streaming responses use server-sent events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/internal/questionnaire"
)

const maxBodyBytes = 16 << 20 // screenshots travel inline as data URLs

// Server serves the chat and questionnaire endpoints.
type Server struct {
	cfg      *viper.Viper
	sessions *chat.Registry
	quest    *questionnaire.Service
	log      *zap.Logger
}

func New(cfg *viper.Viper, sessions *chat.Registry, quest *questionnaire.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, sessions: sessions, quest: quest, log: log.Named("http")}
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /v1/agents", s.handleAgents)
	mux.HandleFunc("POST /v1/chat/{agent}/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /v1/chat/{agent}/sessions/{id}/messages", s.handleMessage)
	mux.HandleFunc("DELETE /v1/chat/{agent}/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("GET /v1/questionnaire/draft", s.handleGetDraft)
	mux.HandleFunc("PUT /v1/questionnaire/draft", s.handlePutDraft)
	mux.HandleFunc("PATCH /v1/questionnaire/draft", s.handlePatchDraft)
	mux.HandleFunc("DELETE /v1/questionnaire/draft", s.handleDeleteDraft)
	mux.HandleFunc("POST /v1/questionnaire/submit", s.handleSubmit)
	mux.HandleFunc("GET /v1/questionnaire/submissions", s.handleSubmissions)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled. With server.tls_domains set
// it serves HTTPS using certificates managed by CertMagic.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	servers := []*http.Server{srv}

	domains := s.cfg.GetStringSlice("server.tls_domains")
	if len(domains) > 0 {
		tlsConf, challenge, err := BuildCertMagicTLS(ctx, CertMagicConfig{
			Domains:      domains,
			Email:        s.cfg.GetString("server.acme_email"),
			CA:           s.cfg.GetString("server.acme_ca"),
			StorageDir:   certStorageDir(s.cfg),
			EnableHTTP01: true,
		})
		if err != nil {
			return err
		}
		srv.TLSConfig = tlsConf
		if challenge != nil {
			acme := &http.Server{Addr: ":80", Handler: challenge, ReadHeaderTimeout: 10 * time.Second}
			servers = append(servers, acme)
			go func() {
				if err := acme.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Warn("acme challenge listener stopped", zap.Error(err))
				}
			}()
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, hs := range servers {
			_ = hs.Shutdown(shutdownCtx)
		}
	}()

	s.log.Info("listening", zap.String("addr", addr), zap.Bool("tls", srv.TLSConfig != nil))
	var err error
	if srv.TLSConfig != nil {
		err = srv.ListenAndServeTLS("", "")
	} else {
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error       string            `json:"error"`
	Fields      map[string]string `json:"fields,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// Package server exposes the texture tools over HTTP: ORM packing, normal
// derivation, set packaging and sphere previews.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"texkit/internal/config"
	"texkit/internal/log"
	"texkit/internal/normalmap"
	"texkit/internal/orm"
	"texkit/internal/texset"
	"texkit/internal/texture"
)

var logger = log.New("server")

// maxUploadBytes bounds a whole multipart request.
const maxUploadBytes = 512 << 20

// errBadRequest marks client mistakes that are not tied to a package
// sentinel, such as malformed form fields.
var errBadRequest = errors.New("bad request")

// Server handles texture tool requests.
type Server struct {
	cfg config.Config
	mux *http.ServeMux
}

// New creates a server whose defaults (size, set name, normal and preview
// settings) come from cfg.
func New(cfg config.Config) *Server {
	s := &Server{cfg: cfg, mux: http.NewServeMux()}

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/orm", s.post(s.handleORM))
	s.mux.HandleFunc("/api/normal", s.post(s.handleNormal))
	s.mux.HandleFunc("/api/pack", s.post(s.handlePack))
	s.mux.HandleFunc("/api/preview", s.post(s.handlePreview))

	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Noticef("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Notice("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// post rejects anything but POST and parses the multipart body before
// calling h.
func (s *Server) post(h func(http.ResponseWriter, *http.Request, *upload) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
			return
		}

		start := time.Now()
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		up, err := newUpload(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		defer up.cleanup()

		if err := h(w, r, up); err != nil {
			s.fail(w, r, err)
			return
		}
		logger.Infof("%s %s in %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		logger.Debugf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, err)
}

// statusFor maps package sentinels onto HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, texture.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, texture.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errBadRequest),
		errors.Is(err, texture.ErrInvalidFileType),
		errors.Is(err, texture.ErrCorrupt),
		errors.Is(err, normalmap.ErrInvalidParams),
		errors.Is(err, orm.ErrNoInputs),
		errors.Is(err, texset.ErrInvalidSet),
		errors.Is(err, texset.ErrEmptySet):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeBody(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dreambig/dreambig-sg/internal/catalog"
	"github.com/dreambig/dreambig-sg/internal/imagen"
	"github.com/dreambig/dreambig-sg/internal/security"
)

// bodyOverhead is the room left for JSON fields around the base64 photo.
const bodyOverhead = 64 * 1024

// handleImagen generates a poster. Upstream failures still answer 200 with a
// placeholder unless the propagate policy is configured.
func (s *Server) handleImagen(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		s.writeError(w, &imagen.ValidationError{Message: imagen.MsgInvalidJSON, Cause: err})
		return
	}

	// A client that navigates away does not abort the upstream call.
	result, err := s.imagen.Process(context.WithoutCancel(r.Context()), clientID(r), body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleImagenMethodNotAllowed answers GET /api/imagen.
func (s *Server) handleImagenMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	s.jsonResponse(w, http.StatusMethodNotAllowed, map[string]any{
		"error":            "Method not allowed. Use POST to generate images.",
		"supportedMethods": []string{http.MethodPost},
	})
}

// maxBodyBytes allows a base64 photo of the configured size plus the other fields.
func (s *Server) maxBodyBytes() int64 {
	limit := int64(security.DefaultMaxPhotoBytes)
	if s.config != nil && s.config.PhotoMaxBytes > 0 {
		limit = s.config.PhotoMaxBytes
	}
	return (limit+2)/3*4 + bodyOverhead
}

// handleLocations lists the poster backgrounds.
func (s *Server) handleLocations(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"locations": catalog.Locations()})
}

// handleCareers lists careers, filtered by the optional q parameter.
func (s *Server) handleCareers(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"careers": catalog.SearchCareers(r.URL.Query().Get("q"))})
}

// handleMissions lists the mission builder options.
func (s *Server) handleMissions(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, catalog.Missions())
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

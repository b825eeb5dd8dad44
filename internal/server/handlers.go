package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/unit-browser/internal/binning"
	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/rendering"
	"github.com/jonathan/unit-browser/internal/types"
)

const defaultSnapshotLimit = 20

var contentTypes = map[rendering.Format]string{
	rendering.FormatJSON:     "application/json",
	rendering.FormatYAML:     "application/yaml",
	rendering.FormatCSV:      "text/csv; charset=utf-8",
	rendering.FormatMarkdown: "text/markdown; charset=utf-8",
	rendering.FormatHTML:     "text/html; charset=utf-8",
}

// BinsResponse is the body of GET /bins.
type BinsResponse struct {
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loaded_at"`
	Total    int            `json:"total"`
	Bins     binning.Bins   `json:"bins"`
	Tokens   []filter.Token `json:"tokens"`
}

// ReloadResponse is the body of a successful POST /reload.
type ReloadResponse struct {
	Status   string    `json:"status"`
	Source   string    `json:"source"`
	Units    int       `json:"units"`
	LoadedAt time.Time `json:"loaded_at"`
}

// handleIndex renders the HTML table, filtered by ?letter=.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f, err := filter.New(r.URL.Query().Get("letter"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	catalog := s.Catalog()
	page := rendering.NewPage(s.title, catalog.Source, catalog.LoadedAt,
		catalog.Tokens(f.Selected()), catalog.Rows(f), len(catalog.Units))

	var buf bytes.Buffer
	if err := s.renderer.HTML(&buf, page); err != nil {
		s.logger.Error("failed to render page", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	s.writeBody(w, http.StatusOK, contentTypes[rendering.FormatHTML], buf.Bytes())
}

// handleUnits exports the visible rows as ?format= (json by default).
func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	query := types.UnitQuery{
		Letter: r.URL.Query().Get("letter"),
		Format: r.URL.Query().Get("format"),
	}
	if err := query.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	f, err := filter.New(query.Letter)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	format, err := rendering.ParseFormat(query.Format)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	catalog := s.Catalog()
	doc := &rendering.Document{
		List:     catalog.UnitList(f),
		Tokens:   catalog.Tokens(f.Selected()),
		Total:    len(catalog.Units),
		LoadedAt: catalog.LoadedAt,
	}

	var buf bytes.Buffer
	if err := rendering.Export(&buf, format, doc); err != nil {
		s.logger.Error("failed to export units", "format", format, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to export units")
		return
	}
	s.writeBody(w, http.StatusOK, contentTypes[format], buf.Bytes())
}

// handleBins returns per-letter counts and the alphabet tokens.
func (s *Server) handleBins(w http.ResponseWriter, r *http.Request) {
	selected, err := filter.Normalize(r.URL.Query().Get("letter"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	catalog := s.Catalog()
	s.jsonResponse(w, http.StatusOK, BinsResponse{
		Source:   catalog.Source,
		LoadedAt: catalog.LoadedAt,
		Total:    len(catalog.Units),
		Bins:     catalog.Bins,
		Tokens:   catalog.Tokens(selected),
	})
}

// handleReload reloads the source. The old catalog is kept on failure.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.Reload(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, ReloadResponse{
		Status:   "reloaded",
		Source:   catalog.Source,
		Units:    len(catalog.Units),
		LoadedAt: catalog.LoadedAt,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	catalog := s.Catalog()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"units":     len(catalog.Units),
		"loaded_at": catalog.LoadedAt,
	})
}

// handleListSnapshots lists saved snapshots, newest first.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := uint64(defaultSnapshotLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			s.errorResponse(w, http.StatusBadRequest, (&ErrValidation{Field: "limit", Message: "must be a positive integer"}).Error())
			return
		}
		limit = parsed
	}

	snapshots, err := s.snapshots.ListSnapshots(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list snapshots", "error", err)
		s.errorResponse(w, HTTPStatus(err), "failed to list snapshots")
		return
	}
	s.jsonResponse(w, http.StatusOK, snapshots)
}

// handleSnapshotUnits returns the units of one snapshot, optionally filtered by letter.
func (s *Server) handleSnapshotUnits(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, (&ErrValidation{Field: "id", Message: "must be a UUID"}).Error())
		return
	}
	letter, err := filter.Normalize(r.URL.Query().Get("letter"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	snap, err := s.snapshots.GetSnapshot(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to get snapshot", "snapshot", id, "error", err)
		s.errorResponse(w, HTTPStatus(err), "failed to get snapshot")
		return
	}
	if snap == nil {
		s.errorResponse(w, http.StatusNotFound, (&ErrNotFound{Resource: "snapshot", ID: id.String()}).Error())
		return
	}

	units, err := s.snapshots.ListUnits(r.Context(), id, letter)
	if err != nil {
		s.logger.Error("failed to list snapshot units", "snapshot", id, "error", err)
		s.errorResponse(w, HTTPStatus(err), "failed to list snapshot units")
		return
	}

	s.jsonResponse(w, http.StatusOK, &types.UnitList{
		Source: snap.Source,
		Letter: letter,
		Count:  len(units),
		Units:  units,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func (s *Server) writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Error("error writing response", "error", err)
	}
}

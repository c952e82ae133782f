// Package api exposes the advisory panel over HTTP (chi) and over MCP.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/griffinb3/agvisor/internal/advisor"
	"github.com/griffinb3/agvisor/internal/history"
	"github.com/griffinb3/agvisor/internal/panel"
	"github.com/griffinb3/agvisor/internal/profile"
	"github.com/griffinb3/agvisor/internal/records"
)

const (
	maxRequestBodySize = 1 << 20  // 1MB
	maxUploadSize      = 10 << 20 // 10MB
)

// DefaultSessionID is used when a request carries no session identifier.
const DefaultSessionID = "default"

// Deps holds the collaborators the HTTP handlers need.
type Deps struct {
	Panel    *panel.Panel
	Profiles profile.Store
	History  history.Store
	// Token, when non-empty, gates mutating routes behind bearer auth.
	Token string
}

// NewHandler returns the HTTP handler for the advisory panel API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/api/advisors", handleListAdvisors)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Post("/api/chat", handleChat(deps))
		r.Post("/api/panel", handlePanel(deps))
		r.Post("/api/clear", handleClear(deps))
		r.Get("/api/profile", handleGetProfile(deps))
		r.Post("/api/profile", handleSaveProfile(deps))
		r.Delete("/api/profile", handleDeleteProfile(deps))
		r.Post("/api/records", handleUploadRecords(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type chatRequest struct {
	Message   string `json:"message"`
	Advisor   string `json:"advisor"`
	SessionID string `json:"session_id"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no message provided")
			return
		}
		if req.Advisor == "" {
			req.Advisor = advisor.DefaultID
		}
		if req.SessionID == "" {
			req.SessionID = DefaultSessionID
		}

		prof := loadProfile(deps, req.SessionID)
		res := deps.Panel.Respond(r.Context(), req.Advisor, req.SessionID, req.Message, prof)
		if res.Failed {
			httpError(w, http.StatusBadGateway, "api_error", "%s", res.Text)
			return
		}

		writeJSON(w, map[string]any{
			"response": res.Text,
			"advisor": map[string]string{
				"name":  res.Name,
				"title": res.Title,
			},
		})
	}
}

type panelRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func handlePanel(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req panelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no message provided")
			return
		}
		if req.SessionID == "" {
			req.SessionID = DefaultSessionID
		}

		prof := loadProfile(deps, req.SessionID)
		mode, results := deps.Panel.Ask(r.Context(), req.SessionID, req.Message, prof)

		writeJSON(w, map[string]any{
			"mode":      mode,
			"responses": results,
		})
	}
}

type clearRequest struct {
	SessionID string `json:"session_id"`
	Advisor   string `json:"advisor"`
}

func handleClear(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req clearRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.SessionID == "" {
			req.SessionID = DefaultSessionID
		}

		var err error
		if req.Advisor != "" {
			err = deps.History.Clear(history.Key(req.SessionID, req.Advisor))
		} else {
			err = deps.History.ClearSession(req.SessionID)
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to clear history: %v", err)
			return
		}

		writeJSON(w, map[string]string{"status": "cleared"})
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			sessionID = DefaultSessionID
		}

		p, ok, err := deps.Profiles.Get(sessionID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load profile: %v", err)
			return
		}
		if !ok {
			p = profile.Profile{SessionID: sessionID}
		}
		writeJSON(w, p)
	}
}

type saveProfileRequest struct {
	SessionID        string   `json:"session_id"`
	BusinessName     string   `json:"business_name"`
	State            string   `json:"state"`
	BusinessType     string   `json:"business_type"`
	Description      string   `json:"business_description"`
	OptionalAdvisors []string `json:"optional_advisors"`
}

func handleSaveProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req saveProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.SessionID == "" {
			req.SessionID = DefaultSessionID
		}

		var optional []string
		for _, id := range req.OptionalAdvisors {
			if advisor.Exists(id) && advisor.Lookup(id).Optional {
				optional = append(optional, id)
			}
		}

		err := profile.Save(deps.Profiles, profile.Profile{
			SessionID:        req.SessionID,
			BusinessName:     req.BusinessName,
			State:            req.State,
			BusinessType:     req.BusinessType,
			Description:      req.Description,
			OptionalAdvisors: optional,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save profile: %v", err)
			return
		}

		writeJSON(w, map[string]string{"status": "saved"})
	}
}

func handleDeleteProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			sessionID = DefaultSessionID
		}

		if err := deps.Profiles.Delete(sessionID); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete profile: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "deleted"})
	}
}

func handleUploadRecords(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart form: %v", err)
			return
		}

		sessionID := r.FormValue("session_id")
		if sessionID == "" {
			sessionID = DefaultSessionID
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "missing file upload")
			return
		}
		defer file.Close()

		uploadID := uuid.New().String()

		if isPDF(header.Filename, header.Header.Get("Content-Type")) {
			notes, err := records.ExtractPDFText(file)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "could not read document: %v", err)
				return
			}
			if err := profile.AttachDocumentNotes(deps.Profiles, sessionID, notes); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to save document notes: %v", err)
				return
			}
			slog.Info("document uploaded", "upload_id", uploadID, "session", sessionID, "file", header.Filename)
			writeJSON(w, map[string]any{
				"status": "uploaded",
				"id":     uploadID,
				"type":   "document",
			})
			return
		}

		snap, err := records.ParseCSV(file)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "could not parse records: %v", err)
			return
		}
		if err := profile.AttachRecords(deps.Profiles, sessionID, snap); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save records: %v", err)
			return
		}

		slog.Info("records uploaded", "upload_id", uploadID, "session", sessionID, "rows", snap.RowCount)
		writeJSON(w, map[string]any{
			"status":    "uploaded",
			"id":        uploadID,
			"type":      "records",
			"summary":   snap.Summary,
			"row_count": snap.RowCount,
		})
	}
}

func handleListAdvisors(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]any)
	for _, a := range advisor.All() {
		out[a.ID] = map[string]any{
			"name":      a.Name,
			"title":     a.Title,
			"specialty": a.Specialty,
			"icon":      a.Icon,
			"optional":  a.Optional,
		}
	}
	writeJSON(w, out)
}

// loadProfile fetches the session's profile, returning nil when none exists
// so composed prompts stay bare. Store faults degrade to no profile.
func loadProfile(deps Deps, sessionID string) *profile.Profile {
	p, ok, err := deps.Profiles.Get(sessionID)
	if err != nil {
		slog.Warn("loading profile", "session", sessionID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &p
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutscript/cutscript-agent/internal/config"
	"github.com/cutscript/cutscript-agent/internal/export"
	"github.com/cutscript/cutscript-agent/internal/project"
	"github.com/cutscript/cutscript-agent/internal/script"
	"github.com/cutscript/cutscript-agent/internal/session"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/documents", listDocumentsHandler(cfg))
		r.Post("/documents", createDocumentHandler(cfg))
		r.Get("/documents/{id}", getDocumentHandler(cfg))
		r.Put("/documents/{id}", updateDocumentHandler(cfg))
		r.Put("/documents/{id}/name", renameDocumentHandler(cfg))
		r.Delete("/documents/{id}", deleteDocumentHandler(cfg))

		r.Get("/documents/{id}/config", documentConfigHandler(cfg))
		r.Get("/documents/{id}/segments", segmentsHandler(cfg))
		r.Get("/documents/{id}/scenes", scenesHandler(cfg))
		r.Get("/documents/{id}/report", reportHandler(cfg))
		r.Get("/documents/{id}/export/edl", exportEDLHandler(cfg))

		r.Post("/documents/{id}/mark", markHandler(cfg))
		r.Get("/documents/{id}/mark/preview", markPreviewHandler(cfg))
		r.Delete("/documents/{id}/mark", markResetHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := cfg.ProjectService.CountDocuments(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to count documents", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, StatusResponse{State: "idle", DocumentsCount: count})
	}
}

func listDocumentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := cfg.ProjectService.ListDocuments(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list documents", "INTERNAL_ERROR")
			return
		}

		resp := DocumentsResponse{Documents: make([]DocumentResponse, len(docs))}
		for i, d := range docs {
			resp.Documents[i] = DocumentToResponse(d, false)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		doc, err := cfg.ProjectService.CreateDocument(r.Context(), req.Name, req.Body)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, DocumentToResponse(doc, true))
	}
}

func getDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := lookupDocument(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, DocumentToResponse(doc, true))
	}
}

func updateDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req UpdateDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		doc, err := cfg.ProjectService.UpdateBody(r.Context(), id, req.Body)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, DocumentToResponse(doc, false))
	}
}

func renameDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req RenameDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		doc, err := cfg.ProjectService.RenameDocument(r.Context(), id, req.Name)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, DocumentToResponse(doc, false))
	}
}

func deleteDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.ProjectService.DeleteDocument(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func documentConfigHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, sess.Config())
	}
}

func segmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"segments": sess.Segments()})
	}
}

func scenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"scenes": sess.Scenes()})
	}
}

func reportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, sess.Report())
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		pc := sess.Config()
		edl := export.GenerateEDL(sess.Segments(), pc.Name, float64(pc.FrameRate))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}

func markHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		var req MarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Kind == "" {
			req.Kind = string(script.CmdHide)
		}

		result, err := sess.Mark(script.CommandKind(req.Kind), req.Position, req.Cursor)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}

func markPreviewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}

		position, err := strconv.ParseFloat(r.URL.Query().Get("position"), 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "position is required", "BAD_REQUEST")
			return
		}

		rng, recording := sess.MarkPreview(position)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"recording": recording,
			"range":     rng,
		})
	}
}

func markResetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookupSession(w, r, cfg)
		if !ok {
			return
		}
		sess.MarkReset()
		w.WriteHeader(http.StatusNoContent)
	}
}

func lookupDocument(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (*project.Document, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "document id required", "BAD_REQUEST")
		return nil, false
	}

	doc, err := cfg.ProjectService.GetDocument(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return nil, false
	}
	if doc == nil {
		WriteError(w, http.StatusNotFound, "document not found", "NOT_FOUND")
		return nil, false
	}
	return doc, true
}

func lookupSession(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "document id required", "BAD_REQUEST")
		return nil, false
	}

	sess, err := cfg.ProjectService.Session(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
		return nil, false
	}
	return sess, true
}

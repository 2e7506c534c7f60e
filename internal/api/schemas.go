package api

import (
	"time"

	"github.com/cutscript/cutscript-agent/internal/project"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State          string `json:"state"`
	DocumentsCount int    `json:"documents_count"`
}

type CreateDocumentRequest struct {
	Name string `json:"name"`
	Body string `json:"body,omitempty"`
}

type UpdateDocumentRequest struct {
	Body string `json:"body"`
}

type RenameDocumentRequest struct {
	Name string `json:"name"`
}

type DocumentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Body      string `json:"body,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type MarkRequest struct {
	Kind     string  `json:"kind"`
	Position float64 `json:"position"`
	Cursor   int     `json:"cursor"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func DocumentToResponse(d *project.Document, withBody bool) DocumentResponse {
	resp := DocumentResponse{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
	if withBody {
		resp.Body = d.Body
	}
	return resp
}

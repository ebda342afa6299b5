package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Heht571/LLMRouter/domain/service"
)

// DocumentationResponse is the projection of a service's documentation.
type DocumentationResponse struct {
	ServiceID string                `json:"service_id"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	Version   string                `json:"version,omitempty"`
	Published bool                  `json:"published"`
	Endpoints []EndpointDocResponse `json:"endpoints"`
	CreatedAt string                `json:"created_at"`
	UpdatedAt string                `json:"updated_at"`
}

// EndpointDocResponse documents one endpoint of a service.
type EndpointDocResponse struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
}

func documentationToResponse(d service.Documentation) DocumentationResponse {
	out := DocumentationResponse{
		ServiceID: d.ServiceID,
		Title:     d.Title,
		Content:   d.Content,
		Version:   d.Version,
		Published: d.Published,
		Endpoints: make([]EndpointDocResponse, 0, len(d.Endpoints)),
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, e := range d.Endpoints {
		out.Endpoints = append(out.Endpoints, EndpointDocResponse{
			Method:      e.Method,
			Path:        e.Path,
			Summary:     e.Summary,
			Description: e.Description,
		})
	}
	return out
}

// DocumentationRequest is the body of POST and PUT
// /seller/services/{id}/documentation.
type DocumentationRequest struct {
	Title     string               `json:"title"`
	Content   string               `json:"content"`
	Version   string               `json:"version"`
	Published bool                 `json:"published"`
	Endpoints []EndpointDocRequest `json:"endpoints"`
}

// EndpointDocRequest is one endpoint entry of a documentation request.
type EndpointDocRequest struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

func (r DocumentationRequest) toParams() service.DocumentationParams {
	p := service.DocumentationParams{
		Title:     r.Title,
		Content:   r.Content,
		Version:   r.Version,
		Published: r.Published,
	}
	for _, e := range r.Endpoints {
		p.Endpoints = append(p.Endpoints, service.EndpointDoc{
			Method:      e.Method,
			Path:        e.Path,
			Summary:     e.Summary,
			Description: e.Description,
		})
	}
	return p
}

// CreateDocumentation attaches documentation to a seller's service.
func (h *Handler) CreateDocumentation(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req DocumentationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.registry.CreateDocumentation(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.toParams())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentationToResponse(doc))
}

// GetSellerDocumentation returns a seller's service documentation,
// published or not.
func (h *Handler) GetSellerDocumentation(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	doc, err := h.registry.GetDocumentation(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentationToResponse(doc))
}

// UpdateDocumentation replaces a seller's service documentation.
func (h *Handler) UpdateDocumentation(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req DocumentationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.registry.UpdateDocumentation(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.toParams())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentationToResponse(doc))
}

// DeleteDocumentation removes a seller's service documentation.
func (h *Handler) DeleteDocumentation(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	if err := h.registry.DeleteDocumentation(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BuyerDocumentation returns the published documentation of an active
// service.
func (h *Handler) BuyerDocumentation(w http.ResponseWriter, r *http.Request) {
	doc, err := h.registry.PublicDocumentation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentationToResponse(doc))
}

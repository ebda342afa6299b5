package service

import "time"

// Documentation is the structured reference a seller maintains for one
// service, shown to buyers once published. The flat Docs field on Service
// stays as a short free-text pointer; Documentation carries the full
// content and per-endpoint reference.
type Documentation struct {
	ServiceID   string
	Title       string
	Content     string // markdown body
	Version     string
	Published   bool
	Endpoints   []EndpointDoc
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EndpointDoc documents one endpoint of a service.
type EndpointDoc struct {
	Method      string
	Path        string
	Summary     string
	Description string
}

// DocumentationParams carries seller-provided documentation fields.
type DocumentationParams struct {
	Title     string
	Content   string
	Version   string
	Published bool
	Endpoints []EndpointDoc
}

// Documentation validation failure reasons.
const (
	ReasonEmptyTitle       = "empty_title"
	ReasonBadEndpointDoc   = "invalid_endpoint_doc"
)

// ValidateDocumentation checks documentation parameters.
// This is a PURE function. Returns "" when valid.
func ValidateDocumentation(p DocumentationParams) string {
	if p.Title == "" {
		return ReasonEmptyTitle
	}
	for _, e := range p.Endpoints {
		if e.Method == "" || e.Path == "" {
			return ReasonBadEndpointDoc
		}
	}
	return ""
}

// NewDocumentation builds a Documentation for serviceID at time now.
// This is a PURE function.
func NewDocumentation(serviceID string, p DocumentationParams, now time.Time) Documentation {
	return Documentation{
		ServiceID: serviceID,
		Title:     p.Title,
		Content:   p.Content,
		Version:   p.Version,
		Published: p.Published,
		Endpoints: p.Endpoints,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyDocumentation returns a copy of d updated with p at time now.
// This is a PURE function.
func (d Documentation) ApplyDocumentation(p DocumentationParams, now time.Time) Documentation {
	d.Title = p.Title
	d.Content = p.Content
	d.Version = p.Version
	d.Published = p.Published
	d.Endpoints = p.Endpoints
	d.UpdatedAt = now
	return d
}

// Package backend routes client calls between the general application
// backend and the dedicated BP image-processing backend.
package backend

import "strings"

// CallClass is a routing category determining which backend base URL a
// request targets.
type CallClass string

const (
	// ClassGeneral is the default application backend.
	ClassGeneral CallClass = "general"
	// ClassBPImage covers image upload, manual blood-pressure event entry,
	// and health-event retrieval.
	ClassBPImage CallClass = "bp-image"
)

// Router resolves the base URL for a call class. Configuration is captured
// at construction; resolution is pure, with no ambient environment reads.
type Router struct {
	generalBaseURL string
	bpBaseURL      string
}

// NewRouter creates a Router. An empty bpOverrideURL means both call classes
// share generalBaseURL; a non-empty one splits the bp-image class onto a
// separate backend without any call-site changes.
func NewRouter(generalBaseURL, bpOverrideURL string) *Router {
	return &Router{
		generalBaseURL: strings.TrimSuffix(generalBaseURL, "/"),
		bpBaseURL:      strings.TrimSuffix(bpOverrideURL, "/"),
	}
}

// BaseURL returns the base URL serving the given call class.
func (r *Router) BaseURL(class CallClass) string {
	if class == ClassBPImage && r.bpBaseURL != "" {
		return r.bpBaseURL
	}
	return r.generalBaseURL
}

package dto

import "github.com/spec-kit/edushare/internal/access"

// AccessCheckRequest asks whether the caller may open a client page.
type AccessCheckRequest struct {
	Path string `json:"path"`
}

// AccessCheckResponse carries the verdict for a page.
type AccessCheckResponse struct {
	Path     string   `json:"path"`
	Verdict  string   `json:"verdict"`
	Target   string   `json:"target,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Required []string `json:"required,omitempty"`
	Notice   string   `json:"notice,omitempty"`
}

// NewAccessCheckResponse maps a verdict.
func NewAccessCheckResponse(path string, v access.Verdict) AccessCheckResponse {
	resp := AccessCheckResponse{
		Path:    path,
		Verdict: string(v.Outcome),
		Target:  v.Target,
		Reason:  string(v.Reason),
	}
	for _, r := range v.Required {
		resp.Required = append(resp.Required, string(r))
	}
	if v.Reason == access.ReasonInsufficientRole {
		resp.Notice = access.RejectionMessage(v.Required)
	}
	return resp
}

// RouteResponse describes one client page.
type RouteResponse struct {
	Path   string   `json:"path"`
	Public bool     `json:"public"`
	Roles  []string `json:"roles,omitempty"`
}

// NewRouteResponse maps a route.
func NewRouteResponse(r access.Route) RouteResponse {
	resp := RouteResponse{Path: r.Pattern, Public: r.Public}
	for _, role := range r.Requirement.Allowed() {
		resp.Roles = append(resp.Roles, string(role))
	}
	return resp
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/xavierca1/lead-inbox/internal/usecase"
)

const maxSubmitBody = 64 << 10

type LeadSubmitter interface {
	Execute(ctx context.Context, input usecase.SubmitLeadInput) (*usecase.SubmitLeadOutput, error)
}

type LeadHandler struct {
	submit LeadSubmitter
}

func NewLeadHandler(submit LeadSubmitter) *LeadHandler {
	return &LeadHandler{submit: submit}
}

// Submit handles POST /api/submit.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input usecase.SubmitLeadInput

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody))
	if err := dec.Decode(&input); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
		return
	}

	input.Site = resolveSite(r, input.Site)
	input.UserAgent = r.UserAgent()
	input.IP = getClientIP(r)

	output, err := h.submit.Execute(r.Context(), input)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

// resolveSite: body -> ?site= -> host subdomain -> referer subdomain.
// Empty means the configured default applies.
func resolveSite(r *http.Request, bodySite string) string {
	if s := strings.TrimSpace(bodySite); s != "" {
		return strings.ToLower(s)
	}
	if s := strings.TrimSpace(r.URL.Query().Get("site")); s != "" {
		return strings.ToLower(s)
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if s := subdomainOf(host); s != "" {
		return s
	}

	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil {
			return subdomainOf(u.Hostname())
		}
	}
	return ""
}

// subdomainOf returns "aaa" for aaa.domain.com and "" for domain.com.
func subdomainOf(host string) string {
	host = strings.TrimSpace(host)
	if i := strings.Index(host, ","); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		return strings.ToLower(parts[0])
	}
	return ""
}

// getClientIP: primeiro IP do X-Forwarded-For, depois X-Real-IP, depois RemoteAddr
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return h
	}
	return r.RemoteAddr
}

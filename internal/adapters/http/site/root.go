// Package site serves the service landing page at the root path.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

// Link points at one of the service's top-level resources.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type index struct {
	Service string `json:"service"`
	Links   []Link `json:"links"`
}

var defaultLinks = []Link{
	{Rel: "docs", Href: "/api-docs"},
	{Rel: "openapi", Href: "/openapi.yaml"},
	{Rel: "metrics", Href: "/healthz"},
	{Rel: "stats", Href: "/stats"},
	{Rel: "channels", Href: "/channels"},
}

// Register attaches the landing page to mux. Unknown paths get a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests.
type RootHandler struct {
	body []byte
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	body, _ := json.Marshal(index{Service: "admetrics", Links: defaultLinks})
	return &RootHandler{body: body}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(h.body)
}

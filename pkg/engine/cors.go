package engine

import (
	"net/http"
	"strings"
)

var corsMethods = strings.Join([]string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}, ", ")

const corsDefaultHeaders = "Content-Type, Authorization, X-Requested-With, Accept, Origin"

// CORS answers browser preflights and adds permissive CORS headers, so pages
// on any origin can call the mock. A preflight for a path whose description
// declares OPTIONS is passed through to the handler.
func CORS(next http.Handler, h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Add("Vary", "Origin")
		hdr.Set("Access-Control-Allow-Credentials", "true")
		hdr.Set("Access-Control-Expose-Headers", RequestIDHeader)

		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
		if !preflight || (h != nil && h.declares(r, http.MethodOptions)) {
			next.ServeHTTP(w, r)
			return
		}

		hdr.Set("Access-Control-Allow-Methods", corsMethods)
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			hdr.Set("Access-Control-Allow-Headers", requested)
		} else {
			hdr.Set("Access-Control-Allow-Headers", corsDefaultHeaders)
		}
		hdr.Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
	})
}

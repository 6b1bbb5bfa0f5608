package api

import (
	"embed"
	"net/http"
)

//go:embed static/index.html
var staticFS embed.FS

// registerWebRoutes serves the embedded chat client at the root path.
func registerWebRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		page, err := staticFS.ReadFile("static/index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
}

package admin

import (
	_ "embed"
	"net/http"
)

//go:embed assets/admin.html
var pageHTML []byte

// Page serves the admin control page. It must be mounted behind a Gate.
type Page struct {
	html []byte
}

// NewPage creates the admin page handler.
func NewPage() *Page {
	return &Page{html: pageHTML}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/admin" && r.URL.Path != "/admin/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(p.html)
	}
}

// RegisterRoutes mounts the gated admin page on mux.
func RegisterRoutes(mux *http.ServeMux, gate *Gate) {
	handler := gate.Require(NewPage())
	mux.Handle("/admin", handler)
	mux.Handle("/admin/", handler)
}

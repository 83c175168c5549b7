package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newAdminMux(secret string) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewGate(secret))
	return mux
}

func TestPage_ServedWithValidKey(t *testing.T) {
	mux := newAdminMux("s3cret")

	for _, path := range []string{"/admin?key=s3cret", "/admin/?key=s3cret"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `id="admin-set-end"`)
		assert.Contains(t, rec.Body.String(), `id="admin-set-duration"`)
		assert.Contains(t, rec.Body.String(), `id="admin-reset"`)
		assert.Contains(t, rec.Body.String(), "x-admin-key")
	}
}

func TestPage_HiddenWithoutKey(t *testing.T) {
	for name, mux := range map[string]*http.ServeMux{
		"configured": newAdminMux("s3cret"),
		"disabled":   newAdminMux(""),
	} {
		t.Run(name, func(t *testing.T) {
			for _, path := range []string{"/admin", "/admin/", "/admin?key=nope"} {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				assert.Equal(t, http.StatusNotFound, rec.Code, path)
				assert.Equal(t, "404 page not found\n", rec.Body.String())
			}
		})
	}
}

func TestPage_SubpathsAndMethods(t *testing.T) {
	mux := newAdminMux("s3cret")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/other?key=s3cret", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin?key=s3cret", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/admin?key=s3cret", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

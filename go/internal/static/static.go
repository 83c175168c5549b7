package static

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

//go:embed dist
var bundle embed.FS

// Handler serves the site bundle. When dir is empty or has no index.html
// the embedded bundle is served instead.
func Handler(dir string) http.Handler {
	return http.FileServer(http.FS(Root(dir)))
}

// Root picks the filesystem the site is served from.
func Root(dir string) fs.FS {
	if dir != "" {
		_, err := os.Stat(filepath.Join(dir, "index.html"))
		if err == nil {
			log.Info().Str("dir", dir).Msg("serving static site from disk")
			return os.DirFS(dir)
		}
		log.Warn().Err(err).Str("dir", dir).Msg("static dir unusable, serving embedded bundle")
	}
	sub, err := fs.Sub(bundle, "dist")
	if err != nil {
		panic(err)
	}
	return sub
}

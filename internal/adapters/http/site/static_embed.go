package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/**
var staticFS embed.FS

// pages is the embedded tree rooted at static/.
var pages fs.FS = func() fs.FS { //nolint:gochecknoglobals // embedded asset tree
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return staticFS
	}
	return sub
}()

// FS returns an http.FileSystem for the embedded assets.
func FS() http.FileSystem {
	return http.FS(pages)
}

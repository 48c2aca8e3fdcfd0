// Package httpapi is the HTTP surface: listing watchable files and
// serving the static viewer UI, plus a small file-listing API and a
// static asset server.
package httpapi

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

//go:embed static/*
var staticFiles embed.FS

// Server exposes the file-listing API and the static viewer UI.
type Server struct {
	watchRoots []string
}

// NewServer returns a Server that lists files under the given roots.
func NewServer(watchRoots []string) *Server {
	return &Server{watchRoots: watchRoots}
}

// Register wires the server's routes onto mux, alongside the
// WebSocket handler the caller has already registered at /ws.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/files", s.handleFiles)
	mux.HandleFunc("/healthz", s.handleHealthz)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("httpapi: embedded static assets missing: %v", err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))
}

// handleFiles lists the non-directory entries directly under each
// configured watch root (subdirectories are not descended into). The
// bundled viewer page does not call it; its path is typed by hand. It
// does not restrict which path a watch control message may later name;
// it is a convenience listing only.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	var files []string
	for _, root := range s.watchRoots {
		entries, err := os.ReadDir(root)
		if err != nil {
			log.Printf("httpapi: listing %s: %v", root, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			files = append(files, filepath.Join(root, entry.Name()))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(files); err != nil {
		log.Printf("httpapi: encoding file list: %v", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

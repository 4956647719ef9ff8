package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.repos.Roots())
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	repo, ok := requireQuery(w, r, "repo")
	if !ok {
		return
	}
	compact, _ := strconv.ParseBool(r.URL.Query().Get("compact"))

	children, err := s.repos.Children(repo, r.URL.Query().Get("path"), compact)
	if err != nil {
		writeRepoError(w, err, "list children")
		return
	}
	JSON(w, http.StatusOK, children)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	repo, ok := requireQuery(w, r, "repo")
	if !ok {
		return
	}

	meta, err := s.repos.Info(repo, r.URL.Query().Get("path"))
	if err != nil {
		writeRepoError(w, err, "get info")
		return
	}
	JSON(w, http.StatusOK, meta)
}

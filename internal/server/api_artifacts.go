package server

import (
	"net/http"
)

type transferRequest struct {
	Repo     string `json:"repo"`
	Path     string `json:"path"`
	ToRepo   string `json:"to_repo"`
	ToFolder string `json:"to_folder"`
}

type transferResponse struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
}

func (s *Server) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	repo, ok := requireQuery(w, r, "repo")
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")

	if err := s.repos.Delete(repo, path); err != nil {
		writeRepoError(w, err, "delete")
		return
	}

	if _, err := s.store.DeleteStashUnder(repo, path); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to update stash")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveArtifact(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, true)
}

func (s *Server) handleCopyArtifact(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, false)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, move bool) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Repo == "" || req.ToRepo == "" {
		JSONError(w, http.StatusBadRequest, "repo and to_repo are required")
		return
	}

	transfer, action := s.repos.Copy, "copy"
	if move {
		transfer, action = s.repos.Move, "move"
	}

	newPath, err := transfer(req.Repo, req.Path, req.ToRepo, req.ToFolder)
	if err != nil {
		writeRepoError(w, err, action)
		return
	}

	if move {
		if _, err := s.store.RenameStashEntries(req.Repo, req.Path, req.ToRepo, newPath); err != nil {
			JSONError(w, http.StatusInternalServerError, "Failed to update stash")
			return
		}
	}

	JSON(w, http.StatusOK, transferResponse{Repo: req.ToRepo, Path: newPath})
}

package server

import (
	"net/http"

	"github.com/bantamhq/arbor/internal/store"
	"github.com/bantamhq/arbor/internal/tree"
)

const (
	defaultStashPageSize = 500
	maxStashPageSize     = 5000
)

type searchRequest struct {
	Pattern string `json:"pattern"`
}

type searchResponse struct {
	Found int `json:"found"`
	Added int `json:"added"`
}

func (s *Server) handleListStash(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := parseLimit(r.URL.Query().Get("limit"), defaultStashPageSize, maxStashPageSize)

	entries, err := s.store.ListStash()
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to list stash")
		return
	}

	// Entries whose artifact has since disappeared are not listed.
	items := make([]tree.Info, 0, len(entries))
	for _, e := range entries {
		if info, ok := s.repos.Item(e.RepoKey, e.Path); ok {
			items = append(items, info)
		}
	}

	page, next, hasMore := paginateAfter(items, cursor, limit, func(i tree.Info) string {
		return i.RepoKey + "/" + i.Path
	})
	JSONList(w, page, next, hasMore)
}

func (s *Server) handleSearchIntoStash(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Pattern == "" {
		JSONError(w, http.StatusBadRequest, "pattern is required")
		return
	}

	found, err := s.repos.Search(req.Pattern)
	if err != nil {
		JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := make([]store.StashEntry, 0, len(found))
	for _, info := range found {
		entries = append(entries, store.StashEntry{RepoKey: info.RepoKey, Path: info.Path})
	}
	added, err := s.store.AddStashEntries(entries)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to stash results")
		return
	}

	JSON(w, http.StatusOK, searchResponse{Found: len(found), Added: added})
}

func (s *Server) handleClearStash(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ClearStash(); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to clear stash")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDiscardStashItem(w http.ResponseWriter, r *http.Request) {
	repo, ok := requireQuery(w, r, "repo")
	if !ok {
		return
	}

	n, err := s.store.DeleteStashUnder(repo, r.URL.Query().Get("path"))
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to discard from stash")
		return
	}
	if n == 0 {
		JSONError(w, http.StatusNotFound, "Not in stash")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

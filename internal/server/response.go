package server

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Response wraps every non-list payload: data on success, error otherwise.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// ListResponse is one page of a cursor-paginated listing.
type ListResponse struct {
	Data       any     `json:"data"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Data: data})
}

func JSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Error: msg})
}

// JSONList writes one page; cursor is nil on the last page.
func JSONList(w http.ResponseWriter, data any, cursor *string, hasMore bool) {
	writeJSON(w, http.StatusOK, ListResponse{Data: data, NextCursor: cursor, HasMore: hasMore})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

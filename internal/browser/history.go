package browser

// History is a Navigator that remembers visited locations so the user can
// step back and forward through them.
type History struct {
	entries []string
	pos     int
}

func NewHistory(start string) *History {
	return &History{entries: []string{start}}
}

func (h *History) Path() string {
	return h.entries[h.pos]
}

// Push records a new location and drops anything ahead of the current one.
func (h *History) Push(path string) {
	h.entries = append(h.entries[:h.pos+1], path)
	h.pos++
}

func (h *History) Replace(path string) {
	h.entries[h.pos] = path
}

func (h *History) Back() (string, bool) {
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

func (h *History) Forward() (string, bool) {
	if h.pos == len(h.entries)-1 {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

func (h *History) Len() int {
	return len(h.entries)
}

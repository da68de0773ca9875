package room

// DefaultHistoryLimit bounds the history buffer.
const DefaultHistoryLimit = 1000

// History is a fixed-capacity ring of messages. Appending beyond capacity
// evicts the oldest message. History is not safe for concurrent use.
type History struct {
	buf   []Message
	start int
	size  int
}

// NewHistory returns an empty history holding at most limit messages.
// A non-positive limit selects DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{buf: make([]Message, limit)}
}

// Append adds msg at the tail, evicting the head when full.
func (h *History) Append(msg Message) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = msg
		h.size++
		return
	}
	h.buf[h.start] = msg
	h.start = (h.start + 1) % len(h.buf)
}

// Recent returns up to n of the newest messages, oldest first. The result is a
// copy; n <= 0 yields an empty slice.
func (h *History) Recent(n int) []Message {
	if n <= 0 {
		return []Message{}
	}
	if n > h.size {
		n = h.size
	}
	out := make([]Message, n)
	first := h.start + h.size - n
	for i := range out {
		out[i] = h.buf[(first+i)%len(h.buf)]
	}
	return out
}

// Len returns the number of buffered messages.
func (h *History) Len() int {
	return h.size
}

// Cap returns the configured bound.
func (h *History) Cap() int {
	return len(h.buf)
}

package history

// ring is a fixed-capacity LIFO that evicts its oldest element when full.
type ring struct {
	buf  []string
	head int // index of the oldest element
	size int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]string, capacity)}
}

// push appends s, reporting whether the oldest element was evicted to make room.
func (r *ring) push(s string) bool {
	if r.size == len(r.buf) {
		r.buf[r.head] = s
		r.head = (r.head + 1) % len(r.buf)
		return true
	}
	r.buf[(r.head+r.size)%len(r.buf)] = s
	r.size++
	return false
}

// pop removes and returns the newest element.
func (r *ring) pop() (string, bool) {
	if r.size == 0 {
		return "", false
	}
	i := (r.head + r.size - 1) % len(r.buf)
	s := r.buf[i]
	r.buf[i] = ""
	r.size--
	return s, true
}

func (r *ring) reset() {
	clear(r.buf)
	r.head, r.size = 0, 0
}

func (r *ring) count() int    { return r.size }
func (r *ring) capacity() int { return len(r.buf) }

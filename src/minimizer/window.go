package minimizer

// entry is an order key and the position of the unit (k-mer or sub-k-mer) it was computed for
type entry struct {
	key uint64
	pos int
}

// window is a monotonic deque over the entries of the current window, held in a fixed ring buffer
//
// positions strictly increase and keys never decrease from front to back, so the front is the minimum.
// Entries with equal keys are all kept: the front is the earliest minimum and any ties follow it directly
type window struct {
	buf  []entry
	head int
	size int
}

// newWindow returns a deque for windows of n entries (one extra slot covers a push before eviction)
func newWindow(n int) window {
	return window{buf: make([]entry, n+1)}
}

// push drops every entry at the back with a larger key, then appends e
func (win *window) push(e entry) {
	for win.size > 0 && win.at(win.size-1).key > e.key {
		win.size--
	}
	win.buf[(win.head+win.size)%len(win.buf)] = e
	win.size++
}

// evictBefore drops entries at the front whose position has left the window
func (win *window) evictBefore(minPos int) {
	for win.size > 0 && win.buf[win.head].pos < minPos {
		win.head = (win.head + 1) % len(win.buf)
		win.size--
	}
}

// front returns the current minimum, the deque must not be empty
func (win *window) front() entry {
	return win.buf[win.head]
}

// tied reports whether more than one entry holds the minimum key
func (win *window) tied() bool {
	return win.size > 1 && win.at(1).key == win.buf[win.head].key
}

// lastTie returns the latest entry holding the minimum key
func (win *window) lastTie() entry {
	minKey := win.buf[win.head].key
	i := 1
	for i < win.size && win.at(i).key == minKey {
		i++
	}
	return win.at(i - 1)
}

func (win *window) len() int {
	return win.size
}

// at returns the i-th entry from the front
func (win *window) at(i int) entry {
	return win.buf[(win.head+i)%len(win.buf)]
}

package convert

// worklist is a FIFO queue of asset names with deduplication. Conversion
// discovers references while it rewrites, so the queue grows during
// processing; the visited set makes the termination argument explicit.
type worklist struct {
	items []string
	seen  map[string]bool
	idx   int // current read position
}

func newWorklist(names []string) *worklist {
	w := &worklist{seen: make(map[string]bool, len(names))}
	w.addAll(names)
	return w
}

// add enqueues a name if it hasn't been seen before.
func (w *worklist) add(name string) {
	if w.seen[name] {
		return
	}
	w.seen[name] = true
	w.items = append(w.items, name)
}

func (w *worklist) addAll(names []string) {
	for _, n := range names {
		w.add(n)
	}
}

// hasNext returns true if there are unprocessed names.
func (w *worklist) hasNext() bool {
	return w.idx < len(w.items)
}

// next returns the next unprocessed name and advances the pointer.
func (w *worklist) next() string {
	name := w.items[w.idx]
	w.idx++
	return name
}

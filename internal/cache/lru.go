package cache

// entry is a node of the recency list. The head is the most recently
// used entry, the tail the next to evict.
type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next *entry[K, V]
}

// recency is a doubly linked list ordered by last use. Not safe for
// concurrent use; LRU holds its lock around every call.
type recency[K comparable, V any] struct {
	head, tail *entry[K, V]
	n          int
}

func (l *recency[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
	l.n++
}

func (l *recency[K, V]) touch(e *entry[K, V]) {
	if e == l.head {
		return
	}
	l.unlink(e)
	l.pushFront(e)
}

// popBack removes the least recently used entry, or returns nil.
func (l *recency[K, V]) popBack() *entry[K, V] {
	e := l.tail
	if e != nil {
		l.unlink(e)
	}
	return e
}

func (l *recency[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nil, nil
	l.n--
}

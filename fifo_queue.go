package limitq

// itemList is the singly linked store behind a Queue.
//
// It is not safe for concurrent use; Queue serializes access with its
// mutex. Invariant: head == nil iff tail == nil iff size == 0, and
// tail.next is always nil.
type itemList[T any] struct {
	head, tail *workItem[T]
	size       int
}

// len returns the number of linked items.
func (l *itemList[T]) len() int { return l.size }

// pushFront links it as the new head.
func (l *itemList[T]) pushFront(it *workItem[T]) {
	if l.head == nil {
		it.next = nil
		l.head, l.tail = it, it
	} else {
		it.next = l.head
		l.head = it
	}
	l.size++
}

// pushBack links it as the new tail.
func (l *itemList[T]) pushBack(it *workItem[T]) {
	it.next = nil
	if l.tail == nil {
		l.head, l.tail = it, it
	} else {
		l.tail.next = it
		l.tail = it
	}
	l.size++
}

// popFront unlinks and returns the head.
//
// If the list is empty, returns nil and false.
func (l *itemList[T]) popFront() (*workItem[T], bool) {
	it := l.head
	if it == nil {
		return nil, false
	}
	l.head = it.next
	if l.head == nil {
		l.tail = nil
	}
	it.next = nil
	l.size--
	return it, true
}

// each visits payloads from head to tail without modifying the list.
func (l *itemList[T]) each(visit func(T)) {
	for it := l.head; it != nil; it = it.next {
		visit(it.payload)
	}
}

// payloads copies the payloads in queue order.
func (l *itemList[T]) payloads() []T {
	out := make([]T, 0, l.size)
	l.each(func(p T) { out = append(out, p) })
	return out
}

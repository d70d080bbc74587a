package limitq

// insertByPriority links it after the last item whose priority is greater
// than or equal to its own.
//
// Items with equal priority keep their arrival order, and an item whose
// priority exceeds every queued item becomes the new head. Runs in O(n).
func (l *itemList[T]) insertByPriority(it *workItem[T]) {
	if l.head == nil || l.head.priority < it.priority {
		l.pushFront(it)
		return
	}

	prev := l.head
	for prev.next != nil && prev.next.priority >= it.priority {
		prev = prev.next
	}

	if prev == l.tail {
		l.pushBack(it)
		return
	}
	it.next = prev.next
	prev.next = it
	l.size++
}

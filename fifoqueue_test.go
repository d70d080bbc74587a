package limitq

import (
	"math/rand"
	"testing"
)

// checkInvariants verifies head/tail/size consistency of l.
func checkInvariants[T any](t *testing.T, l *itemList[T]) {
	t.Helper()

	if (l.head == nil) != (l.tail == nil) || (l.head == nil) != (l.size == 0) {
		t.Fatalf("head=%p tail=%p size=%d: emptiness disagrees", l.head, l.tail, l.size)
	}
	if l.tail != nil && l.tail.next != nil {
		t.Fatal("tail.next is not nil")
	}
	n := 0
	var last *workItem[T]
	for it := l.head; it != nil; it = it.next {
		n++
		last = it
		if n > l.size {
			t.Fatalf("more than %d reachable nodes; cycle?", l.size)
		}
	}
	if n != l.size {
		t.Fatalf("reachable nodes = %d; size = %d", n, l.size)
	}
	if last != l.tail {
		t.Fatal("last reachable node is not tail")
	}
}

func drain[T any](t *testing.T, l *itemList[T]) []T {
	t.Helper()

	var out []T
	for {
		it, ok := l.popFront()
		if !ok {
			break
		}
		if it.next != nil {
			t.Fatal("popped item still linked")
		}
		out = append(out, it.payload)
		checkInvariants(t, l)
	}
	return out
}

func TestItemList_EmptyPop(t *testing.T) {
	var l itemList[int]
	checkInvariants(t, &l)

	if it, ok := l.popFront(); ok || it != nil {
		t.Fatalf("popFront on empty list = (%v, %v); want (nil, false)", it, ok)
	}
}

func TestItemList_PushBackIsFIFO(t *testing.T) {
	var l itemList[int]
	for i := 1; i <= 5; i++ {
		l.pushBack(newWorkItem(i, 0))
		checkInvariants(t, &l)
	}
	if l.len() != 5 {
		t.Fatalf("len = %d; want 5", l.len())
	}

	got := drain(t, &l)
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("FIFO order broken: got %v", got)
		}
	}
}

func TestItemList_PushFrontIsLIFO(t *testing.T) {
	var l itemList[int]
	for i := 1; i <= 5; i++ {
		l.pushFront(newWorkItem(i, 0))
		checkInvariants(t, &l)
	}

	got := drain(t, &l)
	for i, v := range got {
		if v != 5-i {
			t.Fatalf("LIFO order broken: got %v", got)
		}
	}
}

func TestItemList_ReuseAfterEmpty(t *testing.T) {
	var l itemList[string]
	l.pushBack(newWorkItem("a", 0))
	l.popFront()
	checkInvariants(t, &l)

	l.pushFront(newWorkItem("b", 0))
	l.pushBack(newWorkItem("c", 0))
	checkInvariants(t, &l)

	if got := l.payloads(); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("payloads = %v; want [b c]", got)
	}
}

func TestItemList_RequeuedItemDropsStaleLink(t *testing.T) {
	var l itemList[int]
	a, b := newWorkItem(1, 0), newWorkItem(2, 0)
	l.pushBack(a)
	l.pushBack(b)

	it, _ := l.popFront()
	// simulate a caller that kept a stale link before requeueing
	it.next = b
	l.pushBack(it)
	checkInvariants(t, &l)

	if got := drain(t, &l); len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Fatalf("order = %v; want [2 1]", got)
	}
}

func TestItemList_RandomOpsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var l itemList[int]

	for i := range 2000 {
		switch rng.Intn(4) {
		case 0:
			l.pushFront(newWorkItem(i, 0))
		case 1:
			l.pushBack(newWorkItem(i, 0))
		case 2:
			l.insertByPriority(newWorkItem(i, rng.Intn(5)-2))
		default:
			l.popFront()
		}
		checkInvariants(t, &l)
	}
}

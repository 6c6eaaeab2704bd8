package revwalk

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/emirpasic/gods/trees/binaryheap"
)

// generator produces commits one at a time; io.EOF is not used here,
// a nil commit with a nil error means exhausted.
type generator interface {
	next() (*RevCommit, error)
}

type queuedCommit struct {
	c   *RevCommit
	seq uint64
}

// dateQueue pops the most recent commit first. Equal commit times pop in
// insertion order, or in reverse insertion order when lifoTies is set.
type dateQueue struct {
	heap *binaryheap.Heap
	seq  uint64
}

func newDateQueue(lifoTies bool) *dateQueue {
	cmp := func(a, b interface{}) int {
		x, y := a.(queuedCommit), b.(queuedCommit)
		switch {
		case x.c.commitTime > y.c.commitTime:
			return -1
		case x.c.commitTime < y.c.commitTime:
			return 1
		}
		switch {
		case x.seq == y.seq:
			return 0
		case (x.seq < y.seq) != lifoTies:
			return -1
		default:
			return 1
		}
	}
	return &dateQueue{heap: binaryheap.NewWith(cmp)}
}

func (q *dateQueue) add(c *RevCommit) {
	q.seq++
	q.heap.Push(queuedCommit{c: c, seq: q.seq})
}

func (q *dateQueue) next() (*RevCommit, error) {
	v, ok := q.heap.Pop()
	if !ok {
		return nil, nil
	}
	return v.(queuedCommit).c, nil
}

func (q *dateQueue) peek() *RevCommit {
	v, ok := q.heap.Peek()
	if !ok {
		return nil
	}
	return v.(queuedCommit).c
}

func (q *dateQueue) size() int { return q.heap.Size() }

func (q *dateQueue) clear() { q.heap.Clear() }

func (q *dateQueue) everybodyHas(mask uint32) bool {
	for _, v := range q.heap.Values() {
		if v.(queuedCommit).c.flags&mask == 0 {
			return false
		}
	}
	return true
}

func (q *dateQueue) anybodyHas(mask uint32) bool {
	for _, v := range q.heap.Values() {
		if v.(queuedCommit).c.flags&mask != 0 {
			return true
		}
	}
	return false
}

// fifoQueue is a first-in first-out buffer that can also push a commit
// back to its head.
type fifoQueue struct {
	list *doublylinkedlist.List
}

func newFIFO() *fifoQueue { return &fifoQueue{list: doublylinkedlist.New()} }

// drainFIFO buffers the full output of g.
func drainFIFO(g generator) (*fifoQueue, error) {
	q := newFIFO()
	for {
		c, err := g.next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return q, nil
		}
		q.add(c)
	}
}

func (q *fifoQueue) add(c *RevCommit) { q.list.Add(c) }

func (q *fifoQueue) unpop(c *RevCommit) { q.list.Prepend(c) }

func (q *fifoQueue) next() (*RevCommit, error) {
	v, ok := q.list.Get(0)
	if !ok {
		return nil, nil
	}
	q.list.Remove(0)
	return v.(*RevCommit), nil
}

func (q *fifoQueue) size() int { return q.list.Size() }

// lifoQueue reverses the output of the generator it drained.
type lifoQueue struct {
	stack *arraystack.Stack
}

func drainLIFO(g generator) (*lifoQueue, error) {
	q := &lifoQueue{stack: arraystack.New()}
	for {
		c, err := g.next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return q, nil
		}
		q.stack.Push(c)
	}
}

func (q *lifoQueue) next() (*RevCommit, error) {
	v, ok := q.stack.Pop()
	if !ok {
		return nil, nil
	}
	return v.(*RevCommit), nil
}

package port

import (
	"sync"

	"github.com/robotalks/coproc.go/pkg/wire"
)

// PendingReply is a command waiting for its reply.
type PendingReply struct {
	// Size is the expected payload size, 0 for a status reply.
	Size int
	Done Completion

	next *PendingReply
}

func (p *PendingReply) complete(r Result) {
	if p.Done != nil {
		p.Done(r)
	}
}

// ReplyQueue is the FIFO of commands waiting for replies, in send order.
type ReplyQueue struct {
	lock sync.Mutex
	head *PendingReply
	tail *PendingReply
	size int
}

// Push appends a pending reply.
func (q *ReplyQueue) Push(size int, done Completion) {
	q.push(&PendingReply{Size: size, Done: done})
}

func (q *ReplyQueue) push(p *PendingReply) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.head == nil {
		q.head = p
	} else {
		q.tail.next = p
	}
	q.tail = p
	q.size++
}

// Head returns the expected size of the oldest pending reply.
func (q *ReplyQueue) Head() (size int, ok bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.head == nil {
		return 0, false
	}
	return q.head.Size, true
}

// Len is the number of pending replies.
func (q *ReplyQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.size
}

// Pop removes the oldest pending reply.
func (q *ReplyQueue) Pop() (*PendingReply, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	p := q.head
	if p == nil {
		return nil, false
	}
	if q.head = p.next; q.head == nil {
		q.tail = nil
	}
	p.next = nil
	q.size--
	return p, true
}

// MatchAndPop removes the oldest pending reply and completes it with r.
// The completion runs before MatchAndPop returns.
func (q *ReplyQueue) MatchAndPop(r Result) error {
	p, ok := q.Pop()
	if !ok {
		if r.Status == wire.ReplyData {
			return ErrUnexpectedDataReply
		}
		return ErrUnexpectedReply
	}
	p.complete(r)
	return nil
}

// Remove unlinks the given entries which are still queued and returns them.
// Entries already popped are skipped.
func (q *ReplyQueue) Remove(entries []*PendingReply) []*PendingReply {
	set := make(map[*PendingReply]bool, len(entries))
	for _, p := range entries {
		set[p] = true
	}
	var removed []*PendingReply
	q.lock.Lock()
	defer q.lock.Unlock()
	var prev *PendingReply
	for p := q.head; p != nil; {
		next := p.next
		if !set[p] {
			prev, p = p, next
			continue
		}
		if prev == nil {
			q.head = next
		} else {
			prev.next = next
		}
		if q.tail == p {
			q.tail = prev
		}
		p.next = nil
		q.size--
		removed = append(removed, p)
		p = next
	}
	return removed
}

// Drain removes all pending replies and completes them with err.
func (q *ReplyQueue) Drain(err error) int {
	q.lock.Lock()
	p := q.head
	q.head, q.tail, q.size = nil, nil, 0
	q.lock.Unlock()
	var n int
	for ; p != nil; n++ {
		next := p.next
		p.next = nil
		p.complete(Result{Err: err})
		p = next
	}
	return n
}

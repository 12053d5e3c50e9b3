package search

import "container/heap"

// frontier is a min-heap of candidates ordered by less. It belongs to a
// single Run call.
type frontier []*Candidate

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool { return less(f[i], f[j]) }

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x interface{}) { *f = append(*f, x.(*Candidate)) }

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return c
}

func (f *frontier) push(c *Candidate) { heap.Push(f, c) }

func (f *frontier) pop() *Candidate { return heap.Pop(f).(*Candidate) }

package swipe

import "time"

// Sample is a buffered position with the time it was captured.
// At is zero when the caller did not supply a capture time.
type Sample struct {
	Position
	At time.Time
}

// Pair is two consecutive buffered positions.
type Pair struct {
	Prev Position
	Next Position
}

// MotionBuffer is a fixed-capacity ring of the most recent fingertip samples,
// ordered oldest first. Once full, every push evicts the oldest sample.
//
// A MotionBuffer is not safe for concurrent use.
type MotionBuffer struct {
	samples [HistoryLen]Sample
	head    int // index of the oldest sample
	n       int
}

// NewMotionBuffer creates an empty buffer holding up to HistoryLen samples.
func NewMotionBuffer() *MotionBuffer {
	return &MotionBuffer{}
}

// Push appends p as the newest sample.
func (b *MotionBuffer) Push(p Position) {
	b.PushAt(p, time.Time{})
}

// PushAt appends p as the newest sample captured at t.
func (b *MotionBuffer) PushAt(p Position, t time.Time) {
	s := Sample{Position: p, At: t}

	if b.n < len(b.samples) {
		b.samples[(b.head+b.n)%len(b.samples)] = s
		b.n++
		return
	}

	b.samples[b.head] = s
	b.head = (b.head + 1) % len(b.samples)
}

// Len returns the number of buffered samples.
func (b *MotionBuffer) Len() int {
	return b.n
}

// Cap returns the buffer capacity.
func (b *MotionBuffer) Cap() int {
	return len(b.samples)
}

// IsFull reports whether the buffer holds Cap samples.
func (b *MotionBuffer) IsFull() bool {
	return b.n == len(b.samples)
}

// Oldest returns the oldest buffered position, or false if the buffer is empty.
func (b *MotionBuffer) Oldest() (Position, bool) {
	if b.n == 0 {
		return Position{}, false
	}
	return b.at(0).Position, true
}

// Newest returns the most recently pushed position, or false if the buffer is empty.
func (b *MotionBuffer) Newest() (Position, bool) {
	if b.n == 0 {
		return Position{}, false
	}
	return b.at(b.n - 1).Position, true
}

// Pairs returns the Len()-1 consecutive pairs, oldest pair first.
func (b *MotionBuffer) Pairs() []Pair {
	if b.n < 2 {
		return nil
	}

	pairs := make([]Pair, 0, b.n-1)
	for i := 1; i < b.n; i++ {
		pairs = append(pairs, Pair{Prev: b.at(i - 1).Position, Next: b.at(i).Position})
	}
	return pairs
}

// Positions returns a copy of the buffered positions, oldest first.
func (b *MotionBuffer) Positions() []Position {
	out := make([]Position, b.n)
	for i := range out {
		out[i] = b.at(i).Position
	}
	return out
}

// Span returns the capture times of the oldest and newest samples.
func (b *MotionBuffer) Span() (oldest, newest time.Time) {
	if b.n == 0 {
		return time.Time{}, time.Time{}
	}
	return b.at(0).At, b.at(b.n - 1).At
}

// Reset empties the buffer.
func (b *MotionBuffer) Reset() {
	b.head = 0
	b.n = 0
}

func (b *MotionBuffer) at(i int) Sample {
	return b.samples[(b.head+i)%len(b.samples)]
}

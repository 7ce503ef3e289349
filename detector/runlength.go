package detector

// runLength is the state tracked for one run length hypothesis: its
// probability mass and the sufficient statistics of the observations
// seen since the hypothesized changepoint.
type runLength struct {
	prob  float64
	sumX  float64
	sumX2 float64
	count int
}

func (r *runLength) add(x float64) {
	r.sumX += x
	r.sumX2 += x * x
	r.count++
}

// runLengths is a ring buffer indexed by run length. Advancing time
// prepends a fresh r=0 entry, which re-indexes every existing entry
// from r to r+1 without moving it; truncation drops the longest runs
// from the tail.
type runLengths struct {
	buf  []runLength
	head int
	size int
}

func newRunLengths(capacity int) *runLengths {
	if capacity < 1 {
		capacity = 1
	}
	return &runLengths{buf: make([]runLength, capacity)}
}

func (rl *runLengths) Len() int { return rl.size }

// At returns the entry for run length r, which must be less than Len.
func (rl *runLengths) At(r int) *runLength {
	return &rl.buf[(rl.head+r)%len(rl.buf)]
}

func (rl *runLengths) Prepend(entry runLength) {
	if rl.size == len(rl.buf) {
		rl.grow()
	}

	rl.head = (rl.head - 1 + len(rl.buf)) % len(rl.buf)
	rl.buf[rl.head] = entry
	rl.size++
}

// Truncate keeps at most limit entries, dropping the longest run
// lengths.
func (rl *runLengths) Truncate(limit int) {
	if limit < 0 {
		limit = 0
	}
	if rl.size > limit {
		rl.size = limit
	}
}

func (rl *runLengths) Reset() {
	rl.head = 0
	rl.size = 0
}

func (rl *runLengths) grow() {
	next := make([]runLength, 2*len(rl.buf))
	for r := 0; r < rl.size; r++ {
		next[r] = *rl.At(r)
	}
	rl.buf = next
	rl.head = 0
}

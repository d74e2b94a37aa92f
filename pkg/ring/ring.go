package ring

// DefaultCapacity is the number of samples kept for display.
const DefaultCapacity = 128

// Buffer is a fixed-capacity circular store of decoded samples.
// All slots are always populated (zero before the first write) and writes
// overwrite the slot at the cursor. Contents are exposed in storage order,
// not chronological order.
type Buffer struct {
	values []float64
	idx    int
}

// New creates a Buffer of capacity zero-valued samples.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		values: make([]float64, capacity),
	}
}

// Push overwrites the slot at the cursor and advances the cursor.
func (b *Buffer) Push(v float64) {
	b.values[b.idx] = v
	b.idx++
	if b.idx == len(b.values) {
		b.idx = 0
	}
}

// PushAll pushes every value in order.
func (b *Buffer) PushAll(values []float64) {
	for _, v := range values {
		b.Push(v)
	}
}

// Cursor returns the index of the slot the next Push writes.
func (b *Buffer) Cursor() int {
	return b.idx
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.values)
}

// Snapshot copies the contents in storage order into dst.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
func (b *Buffer) Snapshot(dst []float64) []float64 {
	if cap(dst) >= len(b.values) {
		dst = dst[:len(b.values)]
	} else {
		dst = make([]float64, len(b.values))
	}
	copy(dst, b.values)
	return dst
}

// Ordered copies the contents oldest first into dst, treating the slot at
// the cursor as the oldest. Slots never written read as zero.
func (b *Buffer) Ordered(dst []float64) []float64 {
	if cap(dst) >= len(b.values) {
		dst = dst[:len(b.values)]
	} else {
		dst = make([]float64, len(b.values))
	}
	n := copy(dst, b.values[b.idx:])
	copy(dst[n:], b.values[:b.idx])
	return dst
}

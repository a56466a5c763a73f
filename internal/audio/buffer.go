package audio

// Default FrameBuffer bounds.
const (
	DefaultMaxFrames     = 50
	DefaultMaxDurationMs = 1000
)

// Buffer is a bounded sliding window over the most recently pushed frames,
// capped simultaneously by count and by wall-time span. Frames stay in FIFO
// order by TimestampMs; eviction only happens from the front. It is the
// only place in the pipeline that needs to concatenate multiple frames of
// sample data for analyses that need more than one frame of context (tempo
// estimation in particular).
type Buffer struct {
	frames        []Frame
	maxFrames     int
	maxDurationMs int64
}

// NewBuffer constructs a Buffer bounded by maxFrames and maxDurationMs. A
// non-positive maxFrames or maxDurationMs falls back to the package
// defaults rather than producing an unbounded buffer.
func NewBuffer(maxFrames int, maxDurationMs int64) *Buffer {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	if maxDurationMs <= 0 {
		maxDurationMs = DefaultMaxDurationMs
	}
	return &Buffer{
		frames:        make([]Frame, 0, maxFrames),
		maxFrames:     maxFrames,
		maxDurationMs: maxDurationMs,
	}
}

// Push appends a frame, evicting the oldest frames that exceed the count or
// duration bound.
func (b *Buffer) Push(f Frame) {
	b.frames = append(b.frames, f)
	b.evict()
}

func (b *Buffer) evict() {
	for len(b.frames) > b.maxFrames {
		b.frames = b.frames[1:]
	}
	if len(b.frames) > 1 {
		latest := b.frames[len(b.frames)-1].TimestampMs
		for len(b.frames) > 0 && latest-b.frames[0].TimestampMs > b.maxDurationMs {
			b.frames = b.frames[1:]
		}
	}
}

// Frames returns a snapshot of the currently buffered frames, oldest first.
func (b *Buffer) Frames() []Frame {
	out := make([]Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Len returns the number of frames currently buffered.
func (b *Buffer) Len() int {
	return len(b.frames)
}

// DurationMs returns the wall-time span covered by the buffered frames.
func (b *Buffer) DurationMs() int64 {
	if len(b.frames) < 2 {
		return 0
	}
	return b.frames[len(b.frames)-1].TimestampMs - b.frames[0].TimestampMs
}

// Concatenate returns the sample data of every buffered frame joined in
// order, for time-domain analyses that need more than one frame of
// context (e.g. tempo estimation over the tempo window).
func (b *Buffer) Concatenate() []float64 {
	total := 0
	for _, f := range b.frames {
		total += len(f.Samples)
	}
	out := make([]float64, 0, total)
	for _, f := range b.frames {
		out = append(out, f.Samples...)
	}
	return out
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.frames = b.frames[:0]
}

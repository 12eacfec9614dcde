package vm

import "time"

// RealClock sleeps for real and counts milliseconds from creation.
type RealClock struct {
	start time.Time
}

// NewRealClock starts the millisecond counter at zero.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

func (c *RealClock) Sleep(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (c *RealClock) Ticks() uint64 {
	return uint64(time.Since(c.start) / time.Millisecond)
}

// lcgSeed is the fixed starting seed, so runs without explicit
// reseeding are reproducible.
const lcgSeed = 12345

// LCG is a small linear congruential generator with the classic
// C-library constants.
type LCG struct {
	seed uint64
}

// NewLCG returns a generator with the fixed default seed.
func NewLCG() *LCG {
	return &LCG{seed: lcgSeed}
}

// Seed resets the generator state.
func (l *LCG) Seed(s uint64) { l.seed = s }

// Next returns a value in [0, max). A max of zero yields zero.
func (l *LCG) Next(max uint64) uint64 {
	if max == 0 {
		return 0
	}
	l.seed = l.seed*1103515245 + 12345
	return (l.seed >> 16) % max
}

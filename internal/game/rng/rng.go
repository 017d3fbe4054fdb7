// Package rng provides the seeded generator that drives every shuffle and
// card id in a game. It never reads the wall clock or OS entropy; callers
// supply the seed, so the same seed always replays the same game.
package rng

import "strconv"

// RNG is a xorshift64* generator. It is a plain value so that copying a game
// state copies the generator with it.
type RNG struct {
	State  uint64 `json:"state"`
	Issued uint64 `json:"issued"`
}

// New seeds a generator. The seed is scrambled with splitmix64 so that
// small or zero seeds still produce a well-mixed, non-zero state.
func New(seed int64) RNG {
	z := uint64(seed) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 1 // xorshift can't start at 0
	}
	return RNG{State: z}
}

// Uint64 advances the generator and returns the next raw draw.
func (r *RNG) Uint64() uint64 {
	x := r.State
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.State = x
	return x * 0x2545f4914f6cdd1d
}

// Float64 returns a float in [0,1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Intn returns a number in [0, n). It returns 0 when n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Float64() * float64(n))
}

// Shuffle returns a Fisher-Yates permutation of items. The input slice is
// left untouched.
func Shuffle[T any](r *RNG, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ID returns a short unique string. The issue counter prefix makes ids
// unique within one generator; the suffix comes from the stream.
func (r *RNG) ID() string {
	r.Issued++
	suffix := r.Uint64() >> 44
	return strconv.FormatUint(r.Issued, 36) + "-" + strconv.FormatUint(suffix, 36)
}

package engine

import "math/rand"

// RNG orders actors when the world asks for shuffled turn order. It is the
// only source of randomness in the engine. Each turn's draw is fresh; only
// the order mode is persisted, never the sequence.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Shuffle permutes ids in place.
func (r *RNG) Shuffle(ids []string) {
	r.pos++
	r.src.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of shuffles made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

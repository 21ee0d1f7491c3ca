// pkg/rand/rand.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package rand provides a small seeded PCG random number generator, used
// for generating reproducible stress scenes and randomized tests.
package rand

import (
	"iter"

	"github.com/MichaelTJones/pcg"
)

type Rand struct {
	r *pcg.PCG32
}

// Make returns a generator with the given seed; generators made with the
// same seed return the same sequence.
func Make(seed uint64) *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.Seed(seed)
	return r
}

func (r *Rand) Seed(s uint64) {
	r.r.Seed(s, 0xda3e39cb94b95bdb)
}

// Intn returns a value in [0, n).
func (r *Rand) Intn(n int) int {
	return int(r.r.Bounded(uint32(n)))
}

// Float32 returns a value in [0, 1].
func (r *Rand) Float32() float32 {
	return float32(r.r.Random()) / (1<<32 - 1)
}

// Range returns a value in [lo, hi].
func (r *Rand) Range(lo, hi float32) float32 {
	return lo + r.Float32()*(hi-lo)
}

func (r *Rand) Uint32() uint32 {
	return r.r.Random()
}

// Sample uniformly randomly samples an element of a non-empty slice.
func Sample[T any](r *Rand, slice []T) T {
	return slice[r.Intn(len(slice))]
}

// PermutationElement returns the ith element of a random permutation of the
// set of integers [0...,n-1].
// i/n, p is hash, via Andrew Kensler
func PermutationElement(i int, n int, p uint32) int {
	ui, l := uint32(i), uint32(n)
	w := l - 1
	w |= w >> 1
	w |= w >> 2
	w |= w >> 4
	w |= w >> 8
	w |= w >> 16
	for {
		ui ^= p
		ui *= 0xe170893d
		ui ^= p >> 16
		ui ^= (ui & w) >> 4
		ui ^= p >> 8
		ui *= 0x0929eb3f
		ui ^= p >> 23
		ui ^= (ui & w) >> 1
		ui *= 1 | p>>27
		ui *= 0x6935fa69
		ui ^= (ui & w) >> 11
		ui *= 0x74dcb303
		ui ^= (ui & w) >> 2
		ui *= 0x9e501cc3
		ui ^= (ui & w) >> 2
		ui *= 0xc860a3df
		ui &= w
		ui ^= ui >> 5
		if ui < l {
			break
		}
	}
	return int((ui + p) % l)
}

// PermuteSlice iterates over the elements of s in an order determined by
// seed, yielding each element's index along with it.
func PermuteSlice[Slice ~[]E, E any](s Slice, seed uint32) iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for i := range len(s) {
			ip := PermutationElement(i, len(s), seed)
			if !yield(ip, s[ip]) {
				break
			}
		}
	}
}

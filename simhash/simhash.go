// Package simhash detects near-duplicate web pages. Pagination on some
// sites changes the address without changing the document; comparing
// 64-bit SimHash fingerprints of consecutive captures catches that
// without storing full page text.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint computes a 64-bit SimHash over the whitespace-separated
// tokens of text. Each token is hashed with FNV-64a and votes its bits
// into a tally; the fingerprint keeps the bits whose tally is positive.
// Empty input yields 0.
func Fingerprint(text string) uint64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	var tally [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		sum := h.Sum64()
		for i := range tally {
			if sum>>uint(i)&1 == 1 {
				tally[i]++
			} else {
				tally[i]--
			}
		}
	}

	var fp uint64
	for i, votes := range tally {
		if votes > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits of
// each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

package blockchain

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"
	"sync"
)

// ProofOfStake tracks staked amounts and selects the forger of the next block.
type ProofOfStake struct {
	stakers map[string]float64
	mutex   sync.RWMutex
}

// NewProofOfStake creates an empty stake table.
func NewProofOfStake() *ProofOfStake {
	return &ProofOfStake{
		stakers: make(map[string]float64),
	}
}

// Update adds amount to the identity's stake. A negative amount unstakes.
func (pos *ProofOfStake) Update(identity string, amount float64) {
	pos.mutex.Lock()
	defer pos.mutex.Unlock()
	pos.stakers[identity] += amount
}

// GetStake returns the identity's stake, or 0 when it never staked.
func (pos *ProofOfStake) GetStake(identity string) float64 {
	pos.mutex.RLock()
	defer pos.mutex.RUnlock()
	return pos.stakers[identity]
}

// Stakers returns a copy of the stake table.
func (pos *ProofOfStake) Stakers() map[string]float64 {
	pos.mutex.RLock()
	defer pos.mutex.RUnlock()
	out := make(map[string]float64, len(pos.stakers))
	for id, stake := range pos.stakers {
		out[id] = stake
	}
	return out
}

/**
 * GetForger deterministically selects a staked identity, weighted by stake.
 *
 * Identities with positive stake are ordered lexicographically and laid out
 * on a line of cumulative stake. The first 8 bytes of sha256(seed) give a
 * point on [0, total); the identity whose segment contains it wins.
 *
 * Parameters:
 *   - seed: Usually the hash of the last block's payload
 *
 * Returns:
 *   - string: The selected forger
 *   - error: ErrNoEligibleForger when nobody holds positive stake
 */
func (pos *ProofOfStake) GetForger(seed string) (string, error) {
	pos.mutex.RLock()
	identities := make([]string, 0, len(pos.stakers))
	for id, stake := range pos.stakers {
		if stake > 0 {
			identities = append(identities, id)
		}
	}
	sort.Strings(identities)

	cumulative := make([]float64, len(identities))
	total := 0.0
	for i, id := range identities {
		total += pos.stakers[id]
		cumulative[i] = total
	}
	pos.mutex.RUnlock()

	if len(identities) == 0 {
		return "", ErrNoEligibleForger
	}

	digest := sha256.Sum256([]byte(seed))
	fraction := float64(binary.BigEndian.Uint64(digest[:8])) / math.Pow(2, 64)
	draw := fraction * total

	winner := sort.Search(len(cumulative), func(i int) bool {
		return cumulative[i] > draw
	})
	if winner == len(cumulative) {
		// fraction can round up to 1.0
		winner = len(cumulative) - 1
	}
	return identities[winner], nil
}

// Package permutation maps permutation ranks in [0, n!) to permutations of n
// items and back, using the factorial number system. Rank 0 is always the
// identity.
package permutation

import (
	"fmt"
	"sync"

	"github.com/vocdoni/demos-tally/crypto/bigint"
	"github.com/vocdoni/demos-tally/types"
)

var (
	// ErrOutOfRange is returned for ranks outside [0, n!).
	ErrOutOfRange = fmt.Errorf("%w: permutation rank out of range", types.ErrRange)
	// ErrNotPermutation is returned when a list is not a permutation of the
	// reference items.
	ErrNotPermutation = fmt.Errorf("%w: not a permutation", types.ErrRange)
)

var (
	factorialsMu sync.Mutex
	factorials   = []*bigint.Int{bigint.One()}
)

// Factorial returns n!. Values are memoised, so the result must not be
// modified in place.
func Factorial(n int) *bigint.Int {
	if n < 0 {
		panic("negative factorial")
	}
	factorialsMu.Lock()
	defer factorialsMu.Unlock()
	for k := len(factorials); k <= n; k++ {
		factorials = append(factorials, factorials[k-1].Mul(bigint.New(uint64(k))))
	}
	return factorials[n]
}

// MaxRank returns n! - 1, the largest valid rank for n items.
func MaxRank(n int) *bigint.Int {
	r, err := Factorial(n).Sub(bigint.One())
	if err != nil {
		panic(err) // n! >= 1
	}
	return r
}

// ReduceRank maps an arbitrary integer into [0, n!).
func ReduceRank(x *bigint.Int, n int) *bigint.Int {
	r, err := x.Mod(Factorial(n))
	if err != nil {
		panic(err) // n! >= 1
	}
	return r
}

// Identity returns [0, 1, ..., n-1].
func Identity(n int) []int {
	return Range(0, n)
}

// Range returns [lo, lo+1, ..., hi-1].
func Range(lo, hi int) []int {
	if hi < lo {
		return []int{}
	}
	out := make([]int, hi-lo)
	for i := range out {
		out[i] = lo + i
	}
	return out
}

// digits decodes rank into its factorial number system digits. digit i is
// the position picked from the pool of the n-i items left at step i.
func digits(n int, rank *bigint.Int) ([]int, error) {
	fact := Factorial(n)
	if rank.GreaterOrEqual(fact) {
		return nil, ErrOutOfRange
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		var err error
		if fact, _, err = fact.DivModUint(uint64(n - i)); err != nil {
			return nil, err
		}
		var idx *bigint.Int
		if idx, rank, err = rank.DivMod(fact); err != nil {
			return nil, err
		}
		out[i] = int(idx.Uint64())
	}
	return out, nil
}

// Permute returns the permutation of items identified by rank. The input
// slice is not modified.
func Permute[T any](items []T, rank *bigint.Int) ([]T, error) {
	d, err := digits(len(items), rank)
	if err != nil {
		return nil, err
	}
	pool := append([]T(nil), items...)
	out := make([]T, 0, len(items))
	for _, idx := range d {
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out, nil
}

// Restore undoes Permute: Restore(Permute(x, r), r) == x for every x and
// valid rank r.
func Restore[T any](shuffled []T, rank *bigint.Int) ([]T, error) {
	n := len(shuffled)
	d, err := digits(n, rank)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := n - 1; i >= 0; i-- {
		pos := d[i]
		var zero T
		out = append(out, zero)
		copy(out[pos+1:], out[pos:])
		out[pos] = shuffled[i]
	}
	return out, nil
}

// Rank returns the rank r such that Permute(items, r) == shuffled. Items
// must be distinct.
func Rank[T comparable](items, shuffled []T) (*bigint.Int, error) {
	if len(items) != len(shuffled) {
		return nil, ErrNotPermutation
	}
	n := len(items)
	pool := append([]T(nil), items...)
	rank := bigint.Zero()
	for i, v := range shuffled {
		idx := -1
		for k, p := range pool {
			if p == v {
				idx = k
				break
			}
		}
		if idx < 0 {
			return nil, ErrNotPermutation
		}
		rank = rank.Add(bigint.New(uint64(idx)).Mul(Factorial(n - 1 - i)))
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return rank, nil
}

// IndexOf returns the position of v in perm, or -1.
func IndexOf(perm []int, v int) int {
	for i, p := range perm {
		if p == v {
			return i
		}
	}
	return -1
}

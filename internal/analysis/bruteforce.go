package analysis

import (
	"runtime"
	"sync"
)

// SingleByteFunc applies a single-byte cipher in its decoding direction.
type SingleByteFunc func(input []byte, key byte) []byte

// Candidate is the output of one brute-force key.
type Candidate struct {
	Key       int8
	Plaintext []byte
}

// CandidateSet holds one candidate per key, ordered from -128 to 127.
type CandidateSet []Candidate

// Lookup returns the candidate produced by key.
func (cs CandidateSet) Lookup(key int8) Candidate {
	return cs[int(key)+AlphabetSize/2]
}

// BruteForce applies fn with every key from -128 to 127. The keys are spread
// over GOMAXPROCS workers; each result lands in slot key+128, so the returned
// set is ordered by key however the work was scheduled. No candidate is
// preferred over another.
func BruteForce(cipher []byte, fn SingleByteFunc) CandidateSet {
	return BruteForceWorkers(cipher, fn, 0)
}

// BruteForceWorkers is BruteForce with an explicit worker count. A count of
// zero or less means GOMAXPROCS.
func BruteForceWorkers(cipher []byte, fn SingleByteFunc, workers int) CandidateSet {
	set := make(CandidateSet, AlphabetSize)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > AlphabetSize {
		workers = AlphabetSize
	}

	slots := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range slots {
				key := int8(i - AlphabetSize/2)
				set[i] = Candidate{Key: key, Plaintext: fn(cipher, byte(key))}
			}
		}()
	}
	for i := 0; i < AlphabetSize; i++ {
		slots <- i
	}
	close(slots)
	wg.Wait()

	return set
}

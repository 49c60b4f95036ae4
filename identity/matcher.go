package identity

import (
	"errors"
	"math"
)

// ErrCorruptRecord is the sentinel for embedding blobs that fail to decode.
// Use errors.Is; the concrete error is CorruptRecordError.
var ErrCorruptRecord = errors.New("corrupt identity record")

// DefaultThreshold is the conventional acceptance distance for normalized
// face embeddings. Candidates farther than this are treated as unknown
// even when they are the global minimum.
const DefaultThreshold = 0.6

// Match is the result of resolving one observed embedding.
type Match struct {
	Name     string
	Distance float64
}

// Matcher resolves observed embeddings against an enrolled snapshot.
// It holds no state between calls; every observation is re-evaluated
// against whatever snapshot the caller passes in.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher with the given acceptance threshold.
// A non-positive threshold falls back to DefaultThreshold.
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

// Best returns the enrolled identity nearest to the observed embedding,
// or ok=false when the snapshot is empty or the nearest candidate fails
// the threshold test. Ties keep the first-encountered minimum (stable
// argmin), so snapshot order decides between exact ties.
func (m Matcher) Best(observed []float32, known []Identity) (Match, bool) {
	best := Match{Distance: math.Inf(1)}
	for _, id := range known {
		d := EuclideanDistance(observed, id.Embedding)
		if d < best.Distance {
			best = Match{Name: id.Name, Distance: d}
		}
	}
	if best.Name == "" || best.Distance > m.Threshold {
		return Match{}, false
	}
	return best, true
}

// EuclideanDistance computes the L2 distance between two vectors.
// Mismatched or empty lengths yield +Inf so the candidate can never
// pass a threshold test.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

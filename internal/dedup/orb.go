package dedup

import (
	"path/filepath"

	"gocv.io/x/gocv"
)

// Matcher decides whether two page images show the same map.
type Matcher struct {
	// NFeatures is the maximum number of ORB keypoints extracted per image.
	NFeatures int

	// Ratio is the Lowe ratio-test threshold: a match is kept only if its
	// Hamming distance is below Ratio times the second-best distance.
	Ratio float64

	// MinGood is the number of surviving matches needed to declare two
	// images duplicates.
	MinGood int

	cache *descriptorCache
}

// NewMatcher returns a Matcher with the given thresholds and an empty
// descriptor cache.
func NewMatcher(nfeatures int, ratio float64, minGood int) *Matcher {
	return &Matcher{
		NFeatures: nfeatures,
		Ratio:     ratio,
		MinGood:   minGood,
		cache:     newDescriptorCache(),
	}
}

// Close releases all cached descriptor matrices.
func (m *Matcher) Close() {
	m.cache.Clear()
}

// Evict drops the cached descriptors for a path, if any. Call after
// deleting or rewriting a page file.
func (m *Matcher) Evict(path string) {
	m.cache.Evict(path)
}

// Matches reports whether the images at the two paths match at the
// configured thresholds.
//
// Either image being unreadable, or either image yielding fewer than two
// descriptors, counts as a non-match rather than an error: one degenerate
// or corrupt file must not halt a corpus scan.
//
// The match is one-directional (descriptors of the first image queried
// against the second, no cross-check), mirroring how the thresholds were
// tuned.
func (m *Matcher) Matches(pathA, pathB string) bool {
	desA, ok := m.descriptors(pathA)
	if !ok {
		return false
	}
	desB, ok := m.descriptors(pathB)
	if !ok {
		return false
	}
	// knnMatch with k=2 needs at least two train descriptors; fewer than
	// two on either side means a blank or degenerate page.
	if desA.Rows() < 2 || desB.Rows() < 2 {
		return false
	}

	bf := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	defer bf.Close()

	raw := bf.KnnMatch(*desA, *desB, 2)

	good := 0
	for _, pair := range raw {
		if len(pair) != 2 {
			continue
		}
		if pair[0].Distance < m.Ratio*pair[1].Distance {
			good++
		}
	}
	return good >= m.MinGood
}

// IsDuplicate reports whether the candidate image matches any *.jpg file
// already present in corpusDir, skipping the candidate's own path. The
// scan short-circuits on the first match. A missing or empty corpus
// directory means no duplicates.
func (m *Matcher) IsDuplicate(candidatePath, corpusDir string) bool {
	pattern := filepath.Join(corpusDir, "*.jpg")
	corpus, err := filepath.Glob(pattern)
	if err != nil {
		return false
	}

	absCandidate, err := filepath.Abs(candidatePath)
	if err != nil {
		absCandidate = candidatePath
	}

	for _, old := range corpus {
		absOld, err := filepath.Abs(old)
		if err != nil {
			absOld = old
		}
		if absOld == absCandidate {
			continue
		}
		if m.Matches(candidatePath, old) {
			return true
		}
	}
	return false
}

// descriptors returns the ORB descriptor matrix for the image at path,
// computing and caching it on first use. ok is false when the image
// cannot be read or decoded.
func (m *Matcher) descriptors(path string) (*gocv.Mat, bool) {
	if des, ok := m.cache.Get(path); ok {
		return des, true
	}

	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	if img.Empty() {
		return nil, false
	}
	defer img.Close()

	orb := gocv.NewORBWithParams(m.NFeatures, 1.2, 8, 31, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	_, des := orb.DetectAndCompute(img, mask)
	return m.cache.Put(path, des), true
}

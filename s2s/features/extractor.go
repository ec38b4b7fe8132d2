// Package features is the boundary to audio feature extraction. The corpus
// loaders only require something that maps an audio reference to a
// frames-by-dimension matrix; the actual transform is pluggable.
package features

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// MinAudioBytes is the smallest plausible audio file: anything at or below
// a bare WAV header is treated as empty or corrupt.
const MinAudioBytes = 44

// Extractor turns one audio reference (a path from the audio-reference
// list) into a per-frame feature matrix of shape frames x dim.
type Extractor interface {
	Extract(ref string) (*mat.Dense, error)
	// Dim returns the feature dimensionality every extracted matrix has.
	Dim() int
}

// CheckAudioSize reports whether the referenced audio is non-trivially
// sized. A reference that cannot be stat'ed at all is a hard error: the
// audio named by a reference list must exist. An existing file at or below
// a bare header is merely trivial and reported as false for the caller to
// skip.
func CheckAudioSize(ref string) (bool, error) {
	info, err := os.Stat(ref)
	if err != nil {
		return false, fmt.Errorf("missing audio reference %s: %w", ref, err)
	}
	return info.Size() > MinAudioBytes, nil
}

// FrameCount returns the number of frames in an extracted matrix.
func FrameCount(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	r, _ := m.Dims()
	return r
}

// validateDims guards extractor implementations against producing matrices
// of the wrong width.
func validateDims(m *mat.Dense, dim int, ref string) error {
	_, c := m.Dims()
	if c != dim {
		return fmt.Errorf("extractor produced %d-dim frames for %s, want %d", c, ref, dim)
	}
	return nil
}

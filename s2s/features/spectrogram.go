package features

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// SpectrogramExtractor is the default Extractor: it reads 16-bit PCM WAV
// files and produces log-magnitude spectrogram frames. It stands in where a
// full MFCC front end would normally run; the loaders only depend on the
// frames-by-dim shape.
type SpectrogramExtractor struct {
	dim       int
	frameSize int
	hop       int
	fft       *fourier.FFT
}

// NewSpectrogramExtractor builds an extractor emitting dim features per
// frame, with a 400-sample window and 160-sample hop (25ms/10ms at 16kHz).
func NewSpectrogramExtractor(dim int) (*SpectrogramExtractor, error) {
	const frameSize, hop = 400, 160
	if dim <= 0 || dim > frameSize/2+1 {
		return nil, fmt.Errorf("invalid feature dimensionality %d", dim)
	}
	return &SpectrogramExtractor{
		dim:       dim,
		frameSize: frameSize,
		hop:       hop,
		fft:       fourier.NewFFT(frameSize),
	}, nil
}

// Dim returns the configured feature dimensionality.
func (e *SpectrogramExtractor) Dim() int {
	return e.dim
}

// Extract reads the referenced WAV file and returns its spectrogram.
func (e *SpectrogramExtractor) Extract(ref string) (*mat.Dense, error) {
	samples, err := readWAV(ref)
	if err != nil {
		return nil, err
	}

	frames := 1
	if len(samples) > e.frameSize {
		frames += (len(samples) - e.frameSize) / e.hop
	}

	out := mat.NewDense(frames, e.dim, nil)
	window := make([]float64, e.frameSize)
	for f := 0; f < frames; f++ {
		start := f * e.hop
		for i := range window {
			if start+i < len(samples) {
				window[i] = samples[start+i]
			} else {
				window[i] = 0
			}
		}
		coeffs := e.fft.Coefficients(nil, window)
		for d := 0; d < e.dim; d++ {
			// log magnitude, floored to keep silence finite
			out.Set(f, d, math.Log(cmplxAbs(coeffs[d])+1e-10))
		}
	}
	if err := validateDims(out, e.dim, ref); err != nil {
		return nil, err
	}
	return out, nil
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// readWAV decodes a canonical 16-bit PCM WAV file into normalized float64
// samples. Channels are averaged down to mono.
func readWAV(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio %s: %w", path, err)
	}
	if len(raw) <= MinAudioBytes {
		return nil, fmt.Errorf("audio file too small: %s (%d bytes)", path, len(raw))
	}
	if string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file: %s", path)
	}

	channels := int(binary.LittleEndian.Uint16(raw[22:24]))
	bitsPerSample := int(binary.LittleEndian.Uint16(raw[34:36]))
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported sample width %d in %s", bitsPerSample, path)
	}
	if channels < 1 {
		channels = 1
	}

	// locate the data chunk; fmt may be followed by optional chunks
	offset := 12
	var data []byte
	for offset+8 <= len(raw) {
		id := string(raw[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}
		if id == "data" {
			data = raw[body : body+size]
			break
		}
		offset = body + size
	}
	if data == nil {
		return nil, fmt.Errorf("no data chunk in %s", path)
	}

	frames := len(data) / (2 * channels)
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			sum += float64(int16(binary.LittleEndian.Uint16(data[off : off+2])))
		}
		samples[i] = sum / float64(channels) / 32768.0
	}
	return samples, nil
}

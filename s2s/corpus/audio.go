package corpus

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"

	internal "github.com/ZanzyTHEbar/seq2seq-datakit/s2s"
	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/features"
)

// ErrLineCountMismatch is raised when the transcript file and the
// audio-reference file are not line-aligned. The whole load fails; no
// partial dataset is produced.
var ErrLineCountMismatch = errors.New("the size of the text and audio dataset differs")

const (
	// maxFramesPerChar is the sanity ceiling on the frame-to-character
	// ratio. Utterances at or above it are treated as outliers during
	// training. Inherited heuristic; the threshold is not derived from
	// anything measurable, so it stays as-is.
	maxFramesPerChar = 10

	// dummySymbol fills the synthetic source sequence of audio examples.
	dummySymbol = "a"

	// lengthStatsSuffix names the sidecar file next to a split prefix.
	lengthStatsSuffix = "_length_statistics"
)

// ratioStats accumulates the frame-to-character ratio over one load. It is
// threaded through the loop explicitly and written out once at the end.
type ratioStats struct {
	mini   int
	maxi   int
	ratios []float64
}

func newRatioStats() *ratioStats {
	// seeds chosen so a single observation lands in [mini, maxi]
	return &ratioStats{mini: 10, maxi: 1}
}

func (s *ratioStats) observe(ratio int) {
	if ratio > s.maxi {
		s.maxi = ratio
	}
	if ratio < s.mini {
		s.mini = ratio
	}
	s.ratios = append(s.ratios, float64(ratio))
}

// writeSidecar appends one summary line to the split's statistics file.
// Best effort: a failure is logged and the load continues.
func (s *ratioStats) writeSidecar(path string) {
	if len(s.ratios) == 0 {
		return
	}
	logger := internal.GetLogger()
	f, err := os.OpenFile(path+lengthStatsSuffix, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Warn().Err(err).Str("path", path+lengthStatsSuffix).Msg("could not open length statistics file")
		return
	}
	defer f.Close()
	mean := stat.Mean(s.ratios, nil)
	if _, err := fmt.Fprintf(f, "mini=%d, maxi=%d, mean=%g \n", s.mini, s.maxi, mean); err != nil {
		logger.Warn().Err(err).Str("path", path+lengthStatsSuffix).Msg("could not append length statistics")
	}
}

// dummySource builds the placeholder source sequence of an audio example.
// Its token count equals frames-1, so length-based sorting and filtering
// treat audio and text sources uniformly.
func dummySource(frames int, charLevel bool, tok LineTokenizer) []string {
	n := frames - 1
	if n <= 0 {
		return nil
	}
	var line string
	if charLevel {
		line = strings.Repeat(dummySymbol, n)
	} else {
		line = strings.TrimSpace(strings.Repeat(dummySymbol+" ", n))
	}
	return tok.Split(line)
}

// LoadAudio reads the line-aligned transcript file path+textExt and
// audio-reference file path+audioExt, extracts features for every
// referenced utterance and builds a transcript+features dataset.
//
// Training loads keep an example only if the transcript is non-empty, the
// audio is non-trivially sized, the frame-to-character ratio is below the
// sanity ceiling, and both the frame count and the transcript length are
// within their configured maxima. Dev and test loads skip the length and
// ratio filters but still require non-empty transcripts and audio.
func LoadAudio(path, textExt, audioExt string, tok LineTokenizer, ex features.Extractor,
	charLevel, train bool, maxSentLength, maxAudioLength int) (*Dataset, error) {

	textLines, err := readLines(path + textExt)
	if err != nil {
		return nil, err
	}
	audioLines, err := readLines(path + audioExt)
	if err != nil {
		return nil, err
	}
	if len(textLines) != len(audioLines) {
		return nil, fmt.Errorf("%w: %s has %d lines, %s has %d",
			ErrLineCountMismatch, path+textExt, len(textLines), path+audioExt, len(audioLines))
	}

	stats := newRatioStats()
	examples := make([]Example, 0, len(textLines))
	for i := range textLines {
		textLine := strings.TrimSpace(textLines[i])
		audioLine := strings.TrimSpace(audioLines[i])
		if textLine == "" || audioLine == "" {
			continue
		}
		sized, err := features.CheckAudioSize(audioLine)
		if err != nil {
			return nil, err
		}
		if !sized {
			continue
		}

		matrix, err := ex.Extract(audioLine)
		if err != nil {
			return nil, fmt.Errorf("failed to extract features for %s: %w", audioLine, err)
		}
		frames := features.FrameCount(matrix)
		src := dummySource(frames, charLevel, tok)
		trg := tok.Split(textLine)

		// integer ratio against the raw character count, not tokens
		ratio := frames / (utf8.RuneCountInString(textLine) + 1)
		if train {
			if ratio >= maxFramesPerChar {
				continue
			}
			if len(src) > maxAudioLength || len(trg) > maxSentLength {
				continue
			}
		}
		examples = append(examples, Example{Src: src, Trg: trg, Features: matrix})
		stats.observe(ratio)
	}
	stats.writeSidecar(path)

	return NewDataset(examples, audioFields()), nil
}

// LoadMonoAudio reads only the audio-reference file, for test splits that
// ship no transcript. Examples carry nothing but their feature matrices.
func LoadMonoAudio(path, audioExt string, ex features.Extractor) (*Dataset, error) {
	audioLines, err := readLines(path + audioExt)
	if err != nil {
		return nil, err
	}

	examples := make([]Example, 0, len(audioLines))
	for _, line := range audioLines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sized, err := features.CheckAudioSize(line)
		if err != nil {
			return nil, err
		}
		if !sized {
			continue
		}
		matrix, err := ex.Extract(line)
		if err != nil {
			return nil, fmt.Errorf("failed to extract features for %s: %w", line, err)
		}
		examples = append(examples, Example{Features: matrix})
	}
	return NewDataset(examples, monoAudioFields()), nil
}

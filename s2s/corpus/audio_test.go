package corpus

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/mat"
)

// fakeExtractor returns a fixed frame count per referenced file, keyed by
// base name. It stands in for the external feature front end.
type fakeExtractor struct {
	dim    int
	frames map[string]int
}

func (f fakeExtractor) Extract(ref string) (*mat.Dense, error) {
	frames, ok := f.frames[filepath.Base(ref)]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", ref)
	}
	return mat.NewDense(frames, f.dim, nil), nil
}

func (f fakeExtractor) Dim() int { return f.dim }

type AudioLoaderTestSuite struct {
	suite.Suite
	tempDir string
	ex      fakeExtractor
}

func TestAudioLoaderSuite(t *testing.T) {
	suite.Run(t, new(AudioLoaderTestSuite))
}

func (suite *AudioLoaderTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.ex = fakeExtractor{dim: 4, frames: map[string]int{}}
}

// writeAudioFile creates a dummy audio file of the given byte size and
// registers its frame count with the fake extractor.
func (suite *AudioLoaderTestSuite) writeAudioFile(name string, size, frames int) string {
	path := filepath.Join(suite.tempDir, name)
	require.NoError(suite.T(), os.WriteFile(path, bytes.Repeat([]byte{0x1}, size), 0o644))
	suite.ex.frames[name] = frames
	return path
}

// writeSplit writes the transcript file prefix.de and reference list
// prefix.txt and returns the prefix.
func (suite *AudioLoaderTestSuite) writeSplit(name string, transcripts, refs []string) string {
	prefix := filepath.Join(suite.tempDir, name)
	require.NoError(suite.T(), os.WriteFile(prefix+".de", []byte(strings.Join(transcripts, "\n")+"\n"), 0o644))
	require.NoError(suite.T(), os.WriteFile(prefix+".txt", []byte(strings.Join(refs, "\n")+"\n"), 0o644))
	return prefix
}

func (suite *AudioLoaderTestSuite) TestAlignedLoad() {
	a1 := suite.writeAudioFile("utt1.wav", 200, 8)
	a2 := suite.writeAudioFile("utt2.wav", 200, 5)
	prefix := suite.writeSplit("train", []string{"abc", "de fg"}, []string{a1, a2})
	tok := Splitter{Level: LevelWord}

	ds, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 10, 10)
	require.NoError(suite.T(), err)

	suite.Equal(2, ds.Len())
	// synthetic source carries frames-1 dummy tokens
	suite.Len(ds.Example(0).Src, 7)
	suite.Len(ds.Example(1).Src, 4)
	suite.Equal([]string{"abc"}, ds.Example(0).Trg)
	r, c := ds.Example(0).Features.Dims()
	suite.Equal(8, r)
	suite.Equal(4, c)
}

func (suite *AudioLoaderTestSuite) TestCharLevelDummySource() {
	a1 := suite.writeAudioFile("utt1.wav", 200, 4)
	prefix := suite.writeSplit("train", []string{"ab"}, []string{a1})
	tok := Splitter{Level: LevelChar}

	ds, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, true, true, 10, 10)
	require.NoError(suite.T(), err)

	require.Equal(suite.T(), 1, ds.Len())
	suite.Equal([]string{"a", "a", "a"}, ds.Example(0).Src)
}

func (suite *AudioLoaderTestSuite) TestLineCountMismatchFails() {
	a1 := suite.writeAudioFile("utt1.wav", 200, 8)
	prefix := filepath.Join(suite.tempDir, "train")
	require.NoError(suite.T(), os.WriteFile(prefix+".de", []byte("eins\nzwei\n"), 0o644))
	require.NoError(suite.T(), os.WriteFile(prefix+".txt", []byte(a1+"\n"), 0o644))
	tok := Splitter{Level: LevelWord}

	ds, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 10, 10)
	suite.ErrorIs(err, ErrLineCountMismatch)
	suite.Nil(ds)
}

func (suite *AudioLoaderTestSuite) TestTrainRatioFilter() {
	// 40 frames over 2 characters: ratio 40/(2+1) = 13, at least the
	// sanity ceiling, so training drops it
	a1 := suite.writeAudioFile("utt1.wav", 200, 40)
	prefix := suite.writeSplit("train", []string{"ab"}, []string{a1})
	tok := Splitter{Level: LevelWord}

	train, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 100, 100)
	require.NoError(suite.T(), err)
	suite.Equal(0, train.Len())

	dev, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, false, 0, 0)
	require.NoError(suite.T(), err)
	suite.Equal(1, dev.Len())
}

func (suite *AudioLoaderTestSuite) TestTrainLengthFilters() {
	a1 := suite.writeAudioFile("utt1.wav", 200, 30)
	prefix := suite.writeSplit("train", []string{"ein langes transkript bitte"}, []string{a1})
	tok := Splitter{Level: LevelWord}

	// source length 29 exceeds max_audio_length 20
	ds, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 10, 20)
	require.NoError(suite.T(), err)
	suite.Equal(0, ds.Len())

	// transcript length 4 exceeds max_sent_length 3
	ds, err = LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 3, 100)
	require.NoError(suite.T(), err)
	suite.Equal(0, ds.Len())

	ds, err = LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 10, 100)
	require.NoError(suite.T(), err)
	suite.Equal(1, ds.Len())
}

func (suite *AudioLoaderTestSuite) TestMissingAudioReferenceFails() {
	a1 := suite.writeAudioFile("utt1.wav", 200, 8)
	missing := filepath.Join(suite.tempDir, "ghost.wav")
	prefix := suite.writeSplit("train", []string{"eins", "zwei"}, []string{a1, missing})
	tok := Splitter{Level: LevelWord}

	// a reference naming a nonexistent file aborts the whole load; it is
	// not a per-example skip
	ds, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 10, 10)
	suite.Error(err)
	suite.Contains(err.Error(), "ghost.wav")
	suite.Nil(ds)

	ds, err = LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, false, 0, 0)
	suite.Error(err)
	suite.Nil(ds)
}

func (suite *AudioLoaderTestSuite) TestMonoAudioMissingReferenceFails() {
	missing := filepath.Join(suite.tempDir, "ghost.wav")
	prefix := filepath.Join(suite.tempDir, "test")
	require.NoError(suite.T(), os.WriteFile(prefix+".txt", []byte(missing+"\n"), 0o644))

	ds, err := LoadMonoAudio(prefix, ".txt", suite.ex)
	suite.Error(err)
	suite.Contains(err.Error(), "ghost.wav")
	suite.Nil(ds)
}

func (suite *AudioLoaderTestSuite) TestTrivialAudioSkipped() {
	a1 := suite.writeAudioFile("empty.wav", 10, 8) // at most a bare header
	a2 := suite.writeAudioFile("ok.wav", 200, 8)
	prefix := suite.writeSplit("dev", []string{"eins", "zwei"}, []string{a1, a2})
	tok := Splitter{Level: LevelWord}

	ds, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, false, 0, 0)
	require.NoError(suite.T(), err)
	suite.Equal(1, ds.Len())
	suite.Equal([]string{"zwei"}, ds.Example(0).Trg)
}

func (suite *AudioLoaderTestSuite) TestSidecarStatistics() {
	a1 := suite.writeAudioFile("utt1.wav", 200, 8) // ratio 8/(3+1) = 2
	a2 := suite.writeAudioFile("utt2.wav", 200, 5) // ratio 5/(5+1) = 0
	prefix := suite.writeSplit("train", []string{"abc", "de fg"}, []string{a1, a2})
	tok := Splitter{Level: LevelWord}

	_, err := LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 10, 10)
	require.NoError(suite.T(), err)

	raw, err := os.ReadFile(prefix + lengthStatsSuffix)
	require.NoError(suite.T(), err)
	suite.Contains(string(raw), "mini=0, maxi=2, mean=1")

	// append-only: a second load adds a second line
	_, err = LoadAudio(prefix, ".de", ".txt", tok, suite.ex, false, true, 10, 10)
	require.NoError(suite.T(), err)
	raw, err = os.ReadFile(prefix + lengthStatsSuffix)
	require.NoError(suite.T(), err)
	suite.Equal(2, strings.Count(string(raw), "mini="))
}

func (suite *AudioLoaderTestSuite) TestMonoAudioLoader() {
	a1 := suite.writeAudioFile("utt1.wav", 200, 6)
	a2 := suite.writeAudioFile("tiny.wav", 5, 6)
	prefix := filepath.Join(suite.tempDir, "test")
	require.NoError(suite.T(), os.WriteFile(prefix+".txt", []byte(a1+"\n"+a2+"\n\n"), 0o644))

	ds, err := LoadMonoAudio(prefix, ".txt", suite.ex)
	require.NoError(suite.T(), err)

	suite.Equal(1, ds.Len())
	suite.Nil(ds.Example(0).Src)
	suite.Nil(ds.Example(0).Trg)
	suite.NotNil(ds.Example(0).Features)
	suite.False(ds.HasField(FieldSrc))
}

func (suite *AudioLoaderTestSuite) TestMissingTranscriptFails() {
	tok := Splitter{Level: LevelWord}

	_, err := LoadAudio(filepath.Join(suite.tempDir, "nope"), ".de", ".txt", tok, suite.ex, false, true, 10, 10)
	suite.Error(err)
}

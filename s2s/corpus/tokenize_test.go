package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitterCharLevel(t *testing.T) {
	s := Splitter{Level: LevelChar}

	assert.Equal(t, []string{"a", "b", " ", "c"}, s.Split("ab c"))
	// multi-byte runes split as single characters
	assert.Equal(t, []string{"ü", "ß"}, s.Split("üß"))
}

func TestSplitterWordLevel(t *testing.T) {
	s := Splitter{Level: LevelWord}

	assert.Equal(t, []string{"ein", "satz"}, s.Split("ein  satz"))
	assert.Empty(t, s.Split("   "))
}

func TestSplitterLowercase(t *testing.T) {
	assert.Equal(t, []string{"hallo"}, Splitter{Level: LevelWord, Lowercase: true}.Split("HALLO"))
	assert.Equal(t, []string{"H"}, Splitter{Level: LevelChar}.Split("H"))
}

func TestNewTokenizerRejectsUnknownLevel(t *testing.T) {
	_, err := NewTokenizer(Level("syllable"), false, "")
	assert.Error(t, err)
}

func TestNewTokenizerWordPieceNeedsVocab(t *testing.T) {
	_, err := NewTokenizer(LevelWordPiece, false, "")
	require.Error(t, err)
}

func TestPostprocessBPE(t *testing.T) {
	assert.Equal(t, "lowest", PostprocessBPE("low@@ est"))
	assert.Equal(t, "plain text", PostprocessBPE("plain text"))
}

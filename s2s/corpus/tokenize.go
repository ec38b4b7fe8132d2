package corpus

import (
	"fmt"
	"strings"
)

// Level selects the tokenization granularity for corpus lines.
type Level string

const (
	// LevelChar splits a line into individual characters.
	LevelChar Level = "char"
	// LevelBPE expects byte-pair-encoded input, already split on spaces.
	LevelBPE Level = "bpe"
	// LevelWord expects pre-tokenized input, split on whitespace.
	LevelWord Level = "word"
	// LevelWordPiece runs WordPiece sub-word splitting over raw lines.
	LevelWordPiece Level = "wordpiece"
)

// LineTokenizer turns one corpus line into a token sequence.
type LineTokenizer interface {
	Split(line string) []string
}

// Splitter is the plain tokenization strategy: character-level or
// whitespace-level splitting with optional case folding. It is a value, not
// a closure; the strategy is fixed once at configuration time.
type Splitter struct {
	Level     Level
	Lowercase bool
}

// Split tokenizes a single line according to the configured level.
func (s Splitter) Split(line string) []string {
	if s.Lowercase {
		line = strings.ToLower(line)
	}
	if s.Level == LevelChar {
		runes := []rune(line)
		tokens := make([]string, len(runes))
		for i, r := range runes {
			tokens[i] = string(r)
		}
		return tokens
	}
	// bpe or word input is presumed pre-tokenized
	return strings.Fields(line)
}

// NewTokenizer builds the tokenizer for a configured level. WordPiece needs
// a vocab file; the other levels ignore it.
func NewTokenizer(level Level, lowercase bool, wordPieceVocab string) (LineTokenizer, error) {
	switch level {
	case LevelChar, LevelBPE, LevelWord:
		return Splitter{Level: level, Lowercase: lowercase}, nil
	case LevelWordPiece:
		if wordPieceVocab == "" {
			return nil, fmt.Errorf("tokenization level %q requires a wordpiece vocab file", level)
		}
		return NewWordPieceSplitter(wordPieceVocab, lowercase)
	default:
		return nil, fmt.Errorf("unknown tokenization level %q", level)
	}
}

// PostprocessBPE recombines byte-pair-encoded output into plain text.
func PostprocessBPE(s string) string {
	return strings.ReplaceAll(s, "@@ ", "")
}

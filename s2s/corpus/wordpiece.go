package corpus

import (
	"fmt"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// WordPieceSplitter wraps sugarme/tokenizer to split raw lines into
// sub-word tokens. Unlike the bpe level, input does not need to be
// pre-split; the splitter owns normalization and pre-tokenization.
type WordPieceSplitter struct {
	t *tk.Tokenizer
}

// NewWordPieceSplitter loads a WordPiece vocab.txt and builds the
// BERT-style splitter around it.
func NewWordPieceSplitter(vocabPath string, lowercase bool) (*WordPieceSplitter, error) {
	wp, err := wordpiece.NewWordPieceFromFile(vocabPath, vocabUnkToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load wordpiece vocab %s: %w", vocabPath, err)
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, lowercase, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	return &WordPieceSplitter{t: t}, nil
}

// vocabUnkToken is the conventional WordPiece unknown marker.
const vocabUnkToken = "[UNK]"

// Split tokenizes one line into WordPiece sub-words. No special tokens are
// added here; reserved tokens are the vocabulary's concern.
func (w *WordPieceSplitter) Split(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	enc, err := w.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(line)), false)
	if err != nil {
		// sugarme only errors on malformed input sequences; fall back to
		// whitespace splitting so a single odd line cannot abort a load
		return strings.Fields(line)
	}
	return enc.GetTokens()
}

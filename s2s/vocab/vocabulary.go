package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Reserved tokens. Every vocabulary starts with these four entries, in this
// order, so that the unknown token always maps to index 0 and the pad, BOS
// and EOS indices are stable across runs.
const (
	UnkToken = "<unk>"
	PadToken = "<pad>"
	BosToken = "<s>"
	EosToken = "</s>"
)

// DefaultUnkID is the index every absent token resolves to.
const DefaultUnkID = 0

// Common error types used across vocabulary construction
var (
	ErrVocabInvalid    = errors.New("vocabulary violates reserved-token layout")
	ErrVocabEmpty      = errors.New("vocabulary file contains no tokens")
	ErrIndexOutOfRange = errors.New("index out of vocabulary range")
)

// reservedTokens returns the specials in their fixed order.
func reservedTokens() []string {
	return []string{UnkToken, PadToken, BosToken, EosToken}
}

// Vocabulary is a bidirectional token<->index mapping. It is immutable after
// construction; lookups of unknown tokens resolve to DefaultUnkID rather
// than failing.
type Vocabulary struct {
	itos []string
	stoi map[string]int
}

// New builds a Vocabulary from an ordered token list. The caller is expected
// to have placed the reserved tokens first; BuildFromDataset and FromFile do
// this for you.
func New(tokens []string) *Vocabulary {
	v := &Vocabulary{
		stoi: make(map[string]int, len(tokens)),
	}
	v.addTokens(tokens)
	return v
}

// FromFile reads a vocabulary file with one token per line, line number
// defining the index order. The four reserved tokens are appended if the
// file does not already contain them.
func FromFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file %s: %w", path, err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r\n")
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVocabEmpty, path)
	}

	v := New(tokens)
	v.addTokens(reservedTokens())
	if err := v.checkReserved(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// addTokens appends tokens that are not yet present. Only used during
// construction; the mapping is read-only afterwards.
func (v *Vocabulary) addTokens(tokens []string) {
	for _, t := range tokens {
		if _, ok := v.stoi[t]; ok {
			continue
		}
		v.stoi[t] = len(v.itos)
		v.itos = append(v.itos, t)
	}
}

// checkReserved verifies that no reserved token other than <unk> resolves to
// the unknown index. A vocabulary failing this check is unusable: padding or
// sequence boundaries would be indistinguishable from unknown words.
func (v *Vocabulary) checkReserved() error {
	for _, s := range reservedTokens()[1:] {
		if v.IsUnk(s) {
			return fmt.Errorf("%w: %q resolves to the unknown index", ErrVocabInvalid, s)
		}
	}
	return nil
}

// Index returns the index of token, or DefaultUnkID if the token is absent.
func (v *Vocabulary) Index(token string) int {
	if i, ok := v.stoi[token]; ok {
		return i
	}
	return DefaultUnkID
}

// Token returns the token stored at index i.
func (v *Vocabulary) Token(i int) (string, error) {
	if i < 0 || i >= len(v.itos) {
		return "", fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(v.itos))
	}
	return v.itos[i], nil
}

// IsUnk reports whether token maps to the unknown index.
func (v *Vocabulary) IsUnk(token string) bool {
	return v.Index(token) == DefaultUnkID
}

// Len returns the number of tokens including the reserved ones.
func (v *Vocabulary) Len() int {
	return len(v.itos)
}

// PadIndex returns the index used for right-padding batches.
func (v *Vocabulary) PadIndex() int {
	return v.Index(PadToken)
}

// BosIndex returns the sequence-start index.
func (v *Vocabulary) BosIndex() int {
	return v.Index(BosToken)
}

// EosIndex returns the sequence-end index.
func (v *Vocabulary) EosIndex() int {
	return v.Index(EosToken)
}

// Tokens returns a copy of the ordered token list.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.itos))
	copy(out, v.itos)
	return out
}

// ToFile writes the vocabulary, one token per line, in index order. The
// resulting file round-trips through FromFile.
func (v *Vocabulary) ToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, t := range v.itos {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return fmt.Errorf("failed to write vocabulary file %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write vocabulary file %s: %w", path, err)
	}
	return nil
}

// DecodeIndices converts a sequence of indices back to tokens, optionally
// cutting the result at the first end-of-sequence token.
func (v *Vocabulary) DecodeIndices(indices []int, cutAtEOS bool) ([]string, error) {
	sentence := make([]string, 0, len(indices))
	for _, i := range indices {
		t, err := v.Token(i)
		if err != nil {
			return nil, err
		}
		if cutAtEOS && t == EosToken {
			break
		}
		sentence = append(sentence, t)
	}
	return sentence, nil
}

// DecodeBatch converts multiple index sequences to sentences.
func (v *Vocabulary) DecodeBatch(batch [][]int, cutAtEOS bool) ([][]string, error) {
	sentences := make([][]string, 0, len(batch))
	for _, indices := range batch {
		s, err := v.DecodeIndices(indices, cutAtEOS)
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, s)
	}
	return sentences, nil
}

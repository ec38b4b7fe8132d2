package vocab

import (
	"context"
	"fmt"
	"sort"

	assert "github.com/ZanzyTHEbar/assert-lib"
)

// assertHandler guards construction-time invariants. A violated invariant is
// a fatal configuration error, not a recoverable condition.
var assertHandler = assert.NewAssertHandler()

// TokenSource yields the tokens of one named field across a whole dataset.
// corpus.Dataset implements this.
type TokenSource interface {
	FieldTokens(field string) []string
}

// Build derives a Vocabulary for a dataset field, or loads one from
// vocabFile when given. Frequency counting, minimum-frequency filtering and
// size capping only apply to the build-from-data path.
//
// minFreq <= -1 disables the frequency filter. maxSize <= 0 means unbounded.
func Build(field string, maxSize, minFreq int, data TokenSource, vocabFile string) (*Vocabulary, error) {
	if vocabFile != "" {
		return FromFile(vocabFile)
	}

	counter := countTokens(data.FieldTokens(field))
	if minFreq > -1 {
		counter = filterMin(counter, minFreq)
	}

	specials := reservedTokens()
	tokens := append(specials, sortAndCut(counter, maxSize)...)

	ctx := context.Background()
	assertHandler.Assert(ctx, tokens[DefaultUnkID] == UnkToken,
		fmt.Sprintf("vocabulary for field %q lost the unknown token from index %d", field, DefaultUnkID))
	if maxSize > 0 {
		assertHandler.Assert(ctx, len(tokens)-len(specials) <= maxSize,
			fmt.Sprintf("vocabulary for field %q exceeds limit %d", field, maxSize))
	}

	v := New(tokens)
	if err := v.checkReserved(); err != nil {
		return nil, err
	}
	return v, nil
}

func countTokens(tokens []string) map[string]int {
	counter := make(map[string]int)
	for _, t := range tokens {
		counter[t]++
	}
	return counter
}

func filterMin(counter map[string]int, minFreq int) map[string]int {
	filtered := make(map[string]int, len(counter))
	for t, c := range counter {
		if c >= minFreq {
			filtered[t] = c
		}
	}
	return filtered
}

type tokenCount struct {
	token string
	count int
}

// sortAndCut ranks tokens by descending frequency and cuts the list at
// limit. The list is sorted alphabetically first and then stably re-sorted
// by count, so that equal-frequency tokens keep a deterministic
// lexicographic order.
func sortAndCut(counter map[string]int, limit int) []string {
	pairs := make([]tokenCount, 0, len(counter))
	for t, c := range counter {
		pairs = append(pairs, tokenCount{token: t, count: c})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].token < pairs[j].token })
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].count > pairs[j].count })

	if limit > 0 && limit < len(pairs) {
		pairs = pairs[:limit]
	}
	tokens := make([]string, len(pairs))
	for i, p := range pairs {
		tokens[i] = p.token
	}
	return tokens
}

// Package batch turns a loaded dataset into padded, length-aware batches.
// Training iterations bucket and length-sort for padding locality; eval
// iterations preserve file order exactly.
package batch

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/corpus"
)

// bucketFactor sizes the sorting pool: examples are pooled in chunks of
// bucketFactor*batchSize before being sorted by source length.
const bucketFactor = 100

// ErrNoVocab is returned when a tokenized field has no vocabulary attached
// yet; padding and numericalization are impossible without one.
var ErrNoVocab = errors.New("dataset field has no vocabulary attached")

// Batch is one padded group of examples. Token fields are right-padded to
// the batch's local maximum length; the pre-pad lengths ride alongside so
// the consumer can mask or pack. Raw payloads pass through unpadded.
type Batch struct {
	Src       [][]int
	SrcLength []int
	Trg       [][]int
	TrgLength []int
	Features  []*mat.Dense
	Size      int
}

// Iterator produces a finite, restartable sequence of batches over one
// dataset. It does not auto-repeat: once exhausted, Next keeps returning
// false until Reset.
type Iterator struct {
	ds        *corpus.Dataset
	batchSize int
	train     bool
	shuffle   bool

	srcField *corpus.FieldSpec
	trgField *corpus.FieldSpec

	order []int
	pos   int
	rng   *rand.Rand
}

// New builds an iterator over ds. train selects the bucketed length-sorted
// policy; shuffle additionally permutes example order on every pass. Eval
// iterators ignore both sorting and shuffling.
func New(ds *corpus.Dataset, batchSize int, train, shuffle bool) (*Iterator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	it := &Iterator{
		ds:        ds,
		batchSize: batchSize,
		train:     train,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if f, ok := ds.Field(corpus.FieldSrc); ok {
		if f.Vocab == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoVocab, f.Name)
		}
		it.srcField = f
	}
	if f, ok := ds.Field(corpus.FieldTrg); ok {
		if f.Vocab == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoVocab, f.Name)
		}
		it.trgField = f
	}
	it.Reset()
	return it, nil
}

// Seed fixes the shuffling source, for reproducible passes.
func (it *Iterator) Seed(seed int64) {
	it.rng = rand.New(rand.NewSource(seed))
}

// Reset rewinds the iterator for a fresh pass. Training passes with
// shuffle enabled draw a new permutation each time.
func (it *Iterator) Reset() {
	n := it.ds.Len()
	it.order = make([]int, n)
	for i := range it.order {
		it.order[i] = i
	}
	it.pos = 0
	if !it.train {
		return
	}
	if it.shuffle {
		it.rng.Shuffle(n, func(i, j int) {
			it.order[i], it.order[j] = it.order[j], it.order[i]
		})
	}
	it.sortBuckets()
}

// sortBuckets length-sorts each pool of bucketFactor*batchSize examples by
// source length ascending, so consecutive batches pad minimally while the
// global order keeps some randomness.
func (it *Iterator) sortBuckets() {
	bucket := bucketFactor * it.batchSize
	for start := 0; start < len(it.order); start += bucket {
		end := start + bucket
		if end > len(it.order) {
			end = len(it.order)
		}
		chunk := it.order[start:end]
		sort.SliceStable(chunk, func(a, b int) bool {
			return it.srcLen(chunk[a]) < it.srcLen(chunk[b])
		})
	}
}

func (it *Iterator) srcLen(i int) int {
	return len(it.ds.Example(i).Src)
}

// Next returns the next batch of the current pass, or false once the pass
// is exhausted. The final partial batch is kept.
func (it *Iterator) Next() (*Batch, bool) {
	if it.pos >= len(it.order) {
		return nil, false
	}
	end := it.pos + it.batchSize
	if end > len(it.order) {
		end = len(it.order)
	}
	indices := it.order[it.pos:end]
	it.pos = end
	return it.makeBatch(indices), true
}

// makeBatch numericalizes and pads the selected examples.
func (it *Iterator) makeBatch(indices []int) *Batch {
	b := &Batch{Size: len(indices)}

	if it.srcField != nil {
		b.Src, b.SrcLength = it.padField(indices, it.srcField, func(e corpus.Example) []string { return e.Src })
	}
	if it.trgField != nil {
		b.Trg, b.TrgLength = it.padField(indices, it.trgField, func(e corpus.Example) []string { return e.Trg })
	}
	if it.ds.HasField(corpus.FieldFeatures) {
		b.Features = make([]*mat.Dense, len(indices))
		for i, idx := range indices {
			b.Features[i] = it.ds.GetFeatures(idx)
		}
	}
	return b
}

// padField maps one tokenized field to index sequences with BOS/EOS
// affixed per the field's schema entry, right-padded to the batch maximum.
func (it *Iterator) padField(indices []int, field *corpus.FieldSpec, sel func(corpus.Example) []string) ([][]int, []int) {
	v := field.Vocab
	seqs := make([][]int, len(indices))
	lengths := make([]int, len(indices))
	maxLen := 0
	for i, idx := range indices {
		tokens := sel(it.ds.Example(idx))
		seq := make([]int, 0, len(tokens)+2)
		if field.PrependBOS {
			seq = append(seq, v.BosIndex())
		}
		for _, t := range tokens {
			seq = append(seq, v.Index(t))
		}
		if field.AppendEOS {
			seq = append(seq, v.EosIndex())
		}
		seqs[i] = seq
		lengths[i] = len(seq)
		if len(seq) > maxLen {
			maxLen = len(seq)
		}
	}
	pad := v.PadIndex()
	for i, seq := range seqs {
		for len(seq) < maxLen {
			seq = append(seq, pad)
		}
		seqs[i] = seq
	}
	return seqs, lengths
}

package corpus

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/vocab"
)

// FieldKind tags how a dataset field is decoded.
type FieldKind int

const (
	// TokenizedText fields hold token sequences and are numericalized
	// against a vocabulary at batch time.
	TokenizedText FieldKind = iota
	// RawPayload fields carry data that is passed through untouched, such
	// as audio feature matrices.
	RawPayload
)

// Canonical field names shared by loaders, vocabulary building and batching.
const (
	FieldSrc      = "src"
	FieldTrg      = "trg"
	FieldFeatures = "features"
)

// FieldSpec describes one positional element of every Example in a Dataset:
// its kind, the sequence-boundary tokens affixed at batch time, and the
// vocabulary attached after building.
type FieldSpec struct {
	Name       string
	Kind       FieldKind
	PrependBOS bool
	AppendEOS  bool
	Vocab      *vocab.Vocabulary
}

// Example is one aligned unit of training data. Loaders create Examples
// once; they are never mutated afterwards. Fields that a schema does not
// declare stay nil.
type Example struct {
	Src      []string
	Trg      []string
	Features *mat.Dense
}

// Dataset is an ordered, finite collection of Examples plus the field
// schema describing them. It is created once per split and read-only
// afterwards, except for attaching vocabularies to the schema.
type Dataset struct {
	examples []Example
	fields   []FieldSpec
}

// NewDataset wraps loaded examples with their field schema.
func NewDataset(examples []Example, fields []FieldSpec) *Dataset {
	return &Dataset{examples: examples, fields: fields}
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.examples)
}

// Example returns the i-th example in load order.
func (d *Dataset) Example(i int) Example {
	return d.examples[i]
}

// Fields returns the dataset's field schema.
func (d *Dataset) Fields() []FieldSpec {
	return d.fields
}

// Field looks up a schema entry by name.
func (d *Dataset) Field(name string) (*FieldSpec, bool) {
	for i := range d.fields {
		if d.fields[i].Name == name {
			return &d.fields[i], true
		}
	}
	return nil, false
}

// HasField reports whether the schema declares the named field.
func (d *Dataset) HasField(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// SetVocab attaches a built vocabulary to the named field. This is the one
// permitted mutation after construction, mirroring how a split is loaded
// before its vocabulary exists.
func (d *Dataset) SetVocab(name string, v *vocab.Vocabulary) {
	if f, ok := d.Field(name); ok {
		f.Vocab = v
	}
}

// FieldTokens concatenates the named field's tokens across every example.
// It feeds vocabulary building and implements vocab.TokenSource.
func (d *Dataset) FieldTokens(field string) []string {
	var tokens []string
	for i := range d.examples {
		switch field {
		case FieldSrc:
			tokens = append(tokens, d.examples[i].Src...)
		case FieldTrg:
			tokens = append(tokens, d.examples[i].Trg...)
		}
	}
	return tokens
}

// GetText returns the i-th example's target token sequence.
func (d *Dataset) GetText(i int) []string {
	return d.examples[i].Trg
}

// GetFeatures returns the i-th example's raw feature matrix, or nil for
// text-only datasets.
func (d *Dataset) GetFeatures(i int) *mat.Dense {
	return d.examples[i].Features
}

// translationFields is the schema shared by parallel text datasets: source
// closes with EOS, target is wrapped in BOS...EOS.
func translationFields() []FieldSpec {
	return []FieldSpec{
		{Name: FieldSrc, Kind: TokenizedText, AppendEOS: true},
		{Name: FieldTrg, Kind: TokenizedText, PrependBOS: true, AppendEOS: true},
	}
}

// monoFields is the schema of source-only datasets.
func monoFields() []FieldSpec {
	return []FieldSpec{
		{Name: FieldSrc, Kind: TokenizedText, AppendEOS: true},
	}
}

// audioFields is the schema of transcript+features datasets. The target
// carries no BOS here; the synthetic source exists only so length-based
// sorting and filtering work uniformly.
func audioFields() []FieldSpec {
	return []FieldSpec{
		{Name: FieldSrc, Kind: TokenizedText, AppendEOS: true},
		{Name: FieldTrg, Kind: TokenizedText, AppendEOS: true},
		{Name: FieldFeatures, Kind: RawPayload},
	}
}

// monoAudioFields is the schema of audio-only datasets.
func monoAudioFields() []FieldSpec {
	return []FieldSpec{
		{Name: FieldFeatures, Kind: RawPayload},
	}
}

package corpus

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/config"
	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/features"
	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/vocab"
)

// LoadResult bundles everything the training loop consumes: the three
// split datasets and both vocabularies.
type LoadResult struct {
	Train    *Dataset
	Dev      *Dataset
	Test     *Dataset
	SrcVocab *vocab.Vocabulary
	TrgVocab *vocab.Vocabulary
}

// attachVocabs wires built vocabularies into every dataset's field schema
// so batching can numericalize.
func (r *LoadResult) attachVocabs() {
	for _, d := range []*Dataset{r.Train, r.Dev, r.Test} {
		if d == nil {
			continue
		}
		d.SetVocab(FieldSrc, r.SrcVocab)
		d.SetVocab(FieldTrg, r.TrgVocab)
	}
}

// LoadData loads the train, dev and test splits of a parallel text corpus
// as configured, builds the source and target vocabularies from the train
// split, and attaches them to every dataset.
//
// The train split is loaded first because vocabulary building depends on
// it; the dev and test splits are independent of each other and load
// concurrently. Each individual load stays single-threaded.
func LoadData(cfg *config.Config) (*LoadResult, error) {
	data := cfg.Data
	tok, err := NewTokenizer(Level(data.Level), data.Lowercase, data.WordPieceVocab)
	if err != nil {
		return nil, err
	}

	train, err := LoadTranslation(data.Train, data.Src, data.Trg, tok, true, data.MaxSentLength)
	if err != nil {
		return nil, err
	}

	srcVocab, err := vocab.Build(FieldSrc, data.VocLimit, data.VocMinFreq, train, data.SrcVocab)
	if err != nil {
		return nil, err
	}
	trgVocab, err := vocab.Build(FieldTrg, data.VocLimit, data.VocMinFreq, train, data.TrgVocab)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Train: train, SrcVocab: srcVocab, TrgVocab: trgVocab}

	p := pool.New().WithErrors()
	p.Go(func() error {
		dev, err := LoadTranslation(data.Dev, data.Src, data.Trg, tok, false, 0)
		if err != nil {
			return err
		}
		result.Dev = dev
		return nil
	})
	if data.Test != "" {
		p.Go(func() error {
			test, err := loadTestSplit(data, tok)
			if err != nil {
				return err
			}
			result.Test = test
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	result.attachVocabs()
	return result, nil
}

// loadTestSplit prefers a parallel load; when no target-language file
// exists it falls back to a source-only dataset.
func loadTestSplit(data config.DataConfig, tok LineTokenizer) (*Dataset, error) {
	if fileExists(data.Test + "." + data.Trg) {
		return LoadTranslation(data.Test, data.Src, data.Trg, tok, false, 0)
	}
	return LoadMono(data.Test, "."+data.Src, tok)
}

// LoadAudioData loads the splits of a paired audio/text corpus. The
// transcript side is named by whichever language the audio replaces; both
// result vocabularies are the same object, built from the transcripts.
func LoadAudioData(cfg *config.Config, ex features.Extractor) (*LoadResult, error) {
	data := cfg.Data
	audioLang := data.Src
	vocabFile := data.SrcVocab
	if data.Audio == "trg" {
		audioLang = data.Trg
		vocabFile = data.TrgVocab
	}
	textExt := "." + audioLang
	const audioExt = ".txt"

	tok, err := NewTokenizer(Level(data.Level), data.Lowercase, data.WordPieceVocab)
	if err != nil {
		return nil, err
	}
	charLevel := Level(data.Level) == LevelChar

	train, err := LoadAudio(data.Train, textExt, audioExt, tok, ex,
		charLevel, true, data.MaxSentLength, data.MaxAudioLength)
	if err != nil {
		return nil, err
	}

	trgVocab, err := vocab.Build(FieldTrg, data.VocLimit, data.VocMinFreq, train, vocabFile)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Train: train, SrcVocab: trgVocab, TrgVocab: trgVocab}

	p := pool.New().WithErrors()
	p.Go(func() error {
		dev, err := LoadAudio(data.Dev, textExt, audioExt, tok, ex,
			charLevel, false, 0, 0)
		if err != nil {
			return err
		}
		result.Dev = dev
		return nil
	})
	if data.Test != "" {
		p.Go(func() error {
			var test *Dataset
			var err error
			if fileExists(data.Test + textExt) {
				test, err = LoadAudio(data.Test, textExt, audioExt, tok, ex,
					charLevel, false, 0, 0)
			} else {
				test, err = LoadMonoAudio(data.Test, audioExt, ex)
			}
			if err != nil {
				return err
			}
			result.Test = test
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	result.attachVocabs()
	return result, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogDataInfo logs split sizes, the first training example and the head of
// both vocabularies.
func LogDataInfo(r *LoadResult, logger zerolog.Logger) {
	testLen := 0
	if r.Test != nil {
		testLen = r.Test.Len()
	}
	logger.Info().
		Int("train", r.Train.Len()).
		Int("dev", r.Dev.Len()).
		Int("test", testLen).
		Msg("data set sizes")

	if r.Train.Len() > 0 {
		first := r.Train.Example(0)
		logger.Info().
			Str("src", strings.Join(first.Src, " ")).
			Str("trg", strings.Join(first.Trg, " ")).
			Msg("first training example")
	}

	logger.Info().
		Strs("src", vocabHead(r.SrcVocab, 10)).
		Strs("trg", vocabHead(r.TrgVocab, 10)).
		Msg("first vocabulary entries")
	logger.Info().
		Int("src", r.SrcVocab.Len()).
		Int("trg", r.TrgVocab.Len()).
		Msg("vocabulary sizes")
}

func vocabHead(v *vocab.Vocabulary, n int) []string {
	tokens := v.Tokens()
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}

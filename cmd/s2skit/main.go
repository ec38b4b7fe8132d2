package main

import (
	"flag"
	"os"

	internal "github.com/ZanzyTHEbar/seq2seq-datakit/s2s"
	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/batch"
	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/config"
	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/corpus"
	"github.com/ZanzyTHEbar/seq2seq-datakit/s2s/features"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	saveSrcVocab := flag.String("save-src-vocab", "", "write the built source vocabulary to this file")
	saveTrgVocab := flag.String("save-trg-vocab", "", "write the built target vocabulary to this file")
	batchSize := flag.Int("batch-size", 32, "batch size for the smoke iteration over the train split")
	flag.Parse()

	logger := internal.GetLogger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.LogConfig(cfg, logger)

	var result *corpus.LoadResult
	if cfg.Data.Audio != "" {
		ex, err := features.NewSpectrogramExtractor(cfg.Model.FeatureDim)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build feature extractor")
		}
		result, err = corpus.LoadAudioData(cfg, ex)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load audio corpus")
		}
	} else {
		result, err = corpus.LoadData(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load corpus")
		}
	}
	corpus.LogDataInfo(result, logger)

	if *saveSrcVocab != "" {
		if err := result.SrcVocab.ToFile(*saveSrcVocab); err != nil {
			logger.Fatal().Err(err).Msg("failed to write source vocabulary")
		}
		logger.Info().Str("path", *saveSrcVocab).Msg("wrote source vocabulary")
	}
	if *saveTrgVocab != "" {
		if err := result.TrgVocab.ToFile(*saveTrgVocab); err != nil {
			logger.Fatal().Err(err).Msg("failed to write target vocabulary")
		}
		logger.Info().Str("path", *saveTrgVocab).Msg("wrote target vocabulary")
	}

	it, err := batch.New(result.Train, *batchSize, true, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build train iterator")
	}
	batches := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		batches++
	}
	logger.Info().Int("batches", batches).Int("batch_size", *batchSize).Msg("train split batched")

	os.Exit(0)
}

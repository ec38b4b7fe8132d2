package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// readLines fully materializes a corpus file. Loads are eager: the whole
// split is resident before any batch is produced.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}
	return lines, nil
}

// LoadTranslation reads the two line-aligned files path.srcLang and
// path.trgLang into a parallel text dataset. Pairs with an empty side are
// skipped. When train is set, pairs where either side exceeds maxSentLength
// tokens are dropped; dev and test loads never filter by length.
func LoadTranslation(path, srcLang, trgLang string, tok LineTokenizer, train bool, maxSentLength int) (*Dataset, error) {
	srcLines, err := readLines(path + "." + srcLang)
	if err != nil {
		return nil, err
	}
	trgLines, err := readLines(path + "." + trgLang)
	if err != nil {
		return nil, err
	}

	n := len(srcLines)
	if len(trgLines) < n {
		n = len(trgLines)
	}

	examples := make([]Example, 0, n)
	for i := 0; i < n; i++ {
		srcLine := strings.TrimSpace(srcLines[i])
		trgLine := strings.TrimSpace(trgLines[i])
		if srcLine == "" || trgLine == "" {
			continue
		}
		src := tok.Split(srcLine)
		trg := tok.Split(trgLine)
		if train && (len(src) > maxSentLength || len(trg) > maxSentLength) {
			continue
		}
		examples = append(examples, Example{Src: src, Trg: trg})
	}
	return NewDataset(examples, translationFields()), nil
}

// LoadMono reads a single source file path+ext into a dataset without
// targets, used for test splits that ship no reference translation.
func LoadMono(path, ext string, tok LineTokenizer) (*Dataset, error) {
	lines, err := readLines(path + ext)
	if err != nil {
		return nil, err
	}

	examples := make([]Example, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		examples = append(examples, Example{Src: tok.Split(line)})
	}
	return NewDataset(examples, monoFields()), nil
}

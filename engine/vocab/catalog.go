package vocab

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/fablecore/types"
)

//go:embed base.yaml
var baseCatalog []byte

// BaseModule is the module name the base catalog is registered under.
const BaseModule = "base"

// yamlWord is the on-disk form of a vocabulary entry.
type yamlWord struct {
	Text           string   `yaml:"text"`
	Class          string   `yaml:"class"`
	Synonyms       []string `yaml:"synonyms"`
	ObjectRequired bool     `yaml:"object_required"`
	Verbosity      string   `yaml:"verbosity"`
}

type yamlCatalog struct {
	Words []yamlWord `yaml:"words"`
}

// Base returns the embedded base catalog: articles, prepositions and
// directions.
func Base() []types.Word {
	words, err := LoadYAML(bytes.NewReader(baseCatalog))
	if err != nil {
		panic(fmt.Sprintf("vocab: embedded base catalog: %v", err))
	}
	return words
}

// LoadYAML reads a vocabulary catalog in the base catalog format.
func LoadYAML(r io.Reader) ([]types.Word, error) {
	var cat yamlCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding vocabulary: %w", err)
	}

	words := make([]types.Word, 0, len(cat.Words))
	for i, yw := range cat.Words {
		class, ok := ParseClass(yw.Class)
		if !ok {
			return nil, fmt.Errorf("words[%d] %q: unknown class %q", i, yw.Text, yw.Class)
		}
		words = append(words, types.Word{
			Text:           yw.Text,
			Class:          class,
			Synonyms:       yw.Synonyms,
			ObjectRequired: yw.ObjectRequired,
			Verbosity:      yw.Verbosity,
		})
	}
	return words, nil
}

package review

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed openings.yaml
var defaultOpeningsYAML []byte

type openingEntry struct {
	ECO   string `yaml:"eco"`
	Name  string `yaml:"name"`
	Moves string `yaml:"moves"`
}

type openingFile struct {
	Openings []openingEntry `yaml:"openings"`
}

// OpeningBook maps move sequences in short algebraic notation to named
// opening lines. Lookups use canonical SAN as produced by the replay
// layer, so decorated input like "Nf3!?" never reaches the book.
type OpeningBook struct {
	byLine map[string]openingEntry
	maxPly int
}

// NewOpeningBook loads the book shipped with the package.
func NewOpeningBook() (*OpeningBook, error) {
	return LoadOpeningBook(defaultOpeningsYAML)
}

// LoadOpeningBook parses YAML opening data. Entries with an empty move
// list are rejected.
func LoadOpeningBook(data []byte) (*OpeningBook, error) {
	var f openingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing opening book: %w", err)
	}
	b := &OpeningBook{byLine: make(map[string]openingEntry, len(f.Openings))}
	for _, e := range f.Openings {
		line := strings.Join(strings.Fields(e.Moves), " ")
		if line == "" {
			return nil, fmt.Errorf("opening book entry %q has no moves", e.Name)
		}
		ply := len(strings.Fields(line))
		if ply > b.maxPly {
			b.maxPly = ply
		}
		b.byLine[line] = e
	}
	return b, nil
}

// Len reports the number of lines in the book.
func (b *OpeningBook) Len() int { return len(b.byLine) }

// Line reports whether the given move sequence is exactly a known book
// line, and its name if so.
func (b *OpeningBook) Line(sans []string) (string, bool) {
	if len(sans) == 0 || len(sans) > b.maxPly {
		return "", false
	}
	e, ok := b.byLine[strings.Join(sans, " ")]
	if !ok {
		return "", false
	}
	return e.Name, true
}

// Name returns the name of the longest known prefix of the given move
// sequence. Positions deep past the book keep the name of the opening
// they came out of.
func (b *OpeningBook) Name(sans []string) (string, bool) {
	n := len(sans)
	if n > b.maxPly {
		n = b.maxPly
	}
	for i := n; i > 0; i-- {
		if e, ok := b.byLine[strings.Join(sans[:i], " ")]; ok {
			return e.Name, true
		}
	}
	return "", false
}

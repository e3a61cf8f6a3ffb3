package gender

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// StaticClassifier classifies from an in-memory name table, typically
// loaded from a name/category CSV export of the inference dataset.
type StaticClassifier struct {
	names map[string]Category
}

// NewStaticClassifier builds a classifier over the given table. Keys are
// capitalized on insert so lookups match the caller-side normalization.
func NewStaticClassifier(names map[string]Category) *StaticClassifier {
	table := make(map[string]Category, len(names))
	for name, cat := range names {
		table[Capitalize(name)] = cat
	}
	return &StaticClassifier{names: table}
}

// Classify returns the category for firstName, or Unknown.
func (c *StaticClassifier) Classify(firstName string) Category {
	if cat, ok := c.names[Capitalize(firstName)]; ok {
		return cat
	}
	return Unknown
}

// LoadTable reads a two-column name,category CSV into a table usable by
// NewStaticClassifier. Unrecognized categories fail the load.
func LoadTable(r io.Reader) (map[string]Category, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	table := make(map[string]Category)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading name table: %w", err)
		}
		cat := Category(strings.TrimSpace(rec[1]))
		switch cat {
		case Male, Female, MostlyMale, MostlyFemale, Andy, Unknown:
		default:
			return nil, fmt.Errorf("name table: unknown category %q for %q", rec[1], rec[0])
		}
		table[strings.TrimSpace(rec[0])] = cat
	}
	return table, nil
}

// LoadTableFile reads a name table from disk.
func LoadTableFile(path string) (map[string]Category, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadTable(f)
}

// DefaultTable is a small built-in fallback so the dashboard stays
// usable without a full dataset file configured.
func DefaultTable() map[string]Category {
	return map[string]Category{
		"James": Male, "John": Male, "Robert": Male, "Michael": Male,
		"William": Male, "David": Male, "Richard": Male, "Joseph": Male,
		"Thomas": Male, "Charles": Male, "Daniel": Male, "Matthew": Male,
		"Anthony": Male, "Mark": Male, "Steven": Male, "Andrew": Male,
		"Kevin": Male, "Brian": Male, "George": Male, "Eric": Male,
		"Mary": Female, "Patricia": Female, "Jennifer": Female, "Linda": Female,
		"Elizabeth": Female, "Barbara": Female, "Susan": Female, "Jessica": Female,
		"Sarah": Female, "Karen": Female, "Nancy": Female, "Lisa": Female,
		"Margaret": Female, "Betty": Female, "Sandra": Female, "Ashley": Female,
		"Emily": Female, "Michelle": Female, "Amanda": Female, "Laura": Female,
		"Casey": Andy, "Riley": Andy, "Jordan": Andy, "Taylor": Andy,
		"Avery": MostlyFemale, "Leslie": MostlyFemale, "Jamie": MostlyFemale,
		"Morgan": MostlyFemale, "Kerry": MostlyFemale,
		"Drew": MostlyMale, "Shawn": MostlyMale, "Jesse": MostlyMale,
		"Devon": MostlyMale, "Frankie": MostlyMale,
	}
}

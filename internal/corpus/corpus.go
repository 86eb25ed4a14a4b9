// Package corpus loads and stores the book lists passages are drawn from.
package corpus

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/versetype/internal/helloao"
)

// DefaultTranslation is the translation bundled with the binary.
const DefaultTranslation = "eng_asv"

//go:embed eng_asv.json
var embeddedASV []byte

// ErrNotFound is returned when no book list exists for a translation.
var ErrNotFound = errors.New("corpus not found")

// Book is one selectable book.
type Book struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CommonName string `json:"commonName"`
	Chapters   int    `json:"chapters"`
}

// Corpus is the book list of a translation.
type Corpus struct {
	Translation string `json:"translation"`
	ShortName   string `json:"shortName"`
	Name        string `json:"name,omitempty"`
	Books       []Book `json:"books"`
}

// Embedded returns the bundled eng_asv corpus.
func Embedded() (Corpus, error) {
	return decode(embeddedASV)
}

// Load reads a corpus file written by Write.
func Load(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Corpus{}, err
	}
	c, err := decode(data)
	if err != nil {
		return Corpus{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return c, nil
}

// Resolve finds the corpus for translation, preferring a downloaded file in
// dir and falling back to the embedded list for the default translation.
func Resolve(translation, dir string) (Corpus, error) {
	translation = strings.TrimSpace(translation)
	if translation == "" {
		translation = DefaultTranslation
	}
	path := Path(dir, translation)
	c, err := Load(path)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Corpus{}, err
	}
	if translation == DefaultTranslation {
		return Embedded()
	}
	return Corpus{}, fmt.Errorf("%w: %s (expected at %s)", ErrNotFound, translation, path)
}

// Path returns the corpus file path for a translation.
func Path(dir, translation string) string {
	return filepath.Join(dir, translation+".json")
}

// List returns the translations with a downloaded corpus in dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(out)
	return out, nil
}

// FromBooks converts an API book list into a corpus.
func FromBooks(resp helloao.BooksResponse) Corpus {
	c := Corpus{
		Translation: resp.Translation.ID,
		ShortName:   resp.Translation.ShortName,
		Name:        resp.Translation.Name,
		Books:       make([]Book, 0, len(resp.Books)),
	}
	for _, b := range resp.Books {
		if b.NumberOfChapters <= 0 {
			continue
		}
		name := b.CommonName
		if name == "" {
			name = b.Name
		}
		c.Books = append(c.Books, Book{ID: b.ID, Name: b.Name, CommonName: name, Chapters: b.NumberOfChapters})
	}
	return c
}

// Write stores the corpus at path atomically.
func Write(path string, c Corpus) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create corpus dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "corpus-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp corpus: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close corpus: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	return nil
}

// Validate checks that the corpus can be drawn from.
func (c Corpus) Validate() error {
	if c.Translation == "" {
		return fmt.Errorf("corpus translation is empty")
	}
	if len(c.Books) == 0 {
		return fmt.Errorf("corpus %s has no books", c.Translation)
	}
	for _, b := range c.Books {
		if b.ID == "" || b.Chapters <= 0 {
			return fmt.Errorf("corpus %s has invalid book %q", c.Translation, b.ID)
		}
	}
	return nil
}

func decode(data []byte) (Corpus, error) {
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return Corpus{}, err
	}
	if err := c.Validate(); err != nil {
		return Corpus{}, err
	}
	return c, nil
}

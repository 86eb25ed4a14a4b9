// Package passage selects random scripture passages for typing challenges.
package passage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/versetype/internal/corpus"
	"github.com/verte-zerg/versetype/internal/helloao"
	"github.com/verte-zerg/versetype/internal/model"
)

// DefaultWindowSize is the number of consecutive verses in a passage.
const DefaultWindowSize = 5

var (
	// ErrEmptyCorpus is returned when the corpus has no books.
	ErrEmptyCorpus = errors.New("corpus has no books")
	// ErrInvalidCorpus is returned when a corpus book cannot be drawn from.
	ErrInvalidCorpus = errors.New("invalid corpus")
	// ErrEmptyChapter is returned when a fetched chapter has no verses.
	ErrEmptyChapter = errors.New("chapter has no verses")
	// ErrEmptyPassage is returned when the selected window contains no text.
	ErrEmptyPassage = errors.New("passage has no text")
)

// ContentFetchError wraps a failed chapter request.
type ContentFetchError struct {
	Translation string
	Book        string
	Chapter     int
	Err         error
}

func (e *ContentFetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s %s %d: %v", e.Translation, e.Book, e.Chapter, e.Err)
}

func (e *ContentFetchError) Unwrap() error { return e.Err }

// ChapterSource provides chapter documents. *helloao.Client implements it.
type ChapterSource interface {
	Chapter(ctx context.Context, translation, bookID string, number int) (helloao.Chapter, error)
}

// Selector draws random passages from a corpus.
type Selector struct {
	corpus     corpus.Corpus
	source     ChapterSource
	rnd        *rand.Rand
	windowSize int
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand sets the random source.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Selector) {
		if rnd != nil {
			s.rnd = rnd
		}
	}
}

// WithWindowSize sets the number of verses per passage.
func WithWindowSize(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.windowSize = n
		}
	}
}

// New returns a Selector seeded with the current time.
func New(c corpus.Corpus, source ChapterSource, opts ...Option) *Selector {
	s := &Selector{
		corpus:     c,
		source:     source,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		windowSize: DefaultWindowSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectRandomPassage picks a book, a chapter and a verse window uniformly
// at each level and returns the flattened passage.
func (s *Selector) SelectRandomPassage(ctx context.Context) (model.Passage, error) {
	if len(s.corpus.Books) == 0 {
		return model.Passage{}, ErrEmptyCorpus
	}
	if err := s.corpus.Validate(); err != nil {
		return model.Passage{}, fmt.Errorf("%w: %v", ErrInvalidCorpus, err)
	}
	book := s.corpus.Books[s.rnd.Intn(len(s.corpus.Books))]
	chapterNum := 1 + s.rnd.Intn(book.Chapters)

	ch, err := s.source.Chapter(ctx, s.corpus.Translation, book.ID, chapterNum)
	if err != nil {
		return model.Passage{}, &ContentFetchError{
			Translation: s.corpus.Translation,
			Book:        book.ID,
			Chapter:     chapterNum,
			Err:         err,
		}
	}
	if ch.NumberOfVerses <= 0 {
		return model.Passage{}, fmt.Errorf("%s %d: %w", book.ID, chapterNum, ErrEmptyChapter)
	}

	start, end := Window(s.rnd, ch.NumberOfVerses, s.windowSize)
	content := Normalize(Flatten(ch.Verses, start, end))
	if content == "" {
		return model.Passage{}, fmt.Errorf("%s %d:%d-%d: %w", book.ID, chapterNum, start, end, ErrEmptyPassage)
	}

	p := model.Passage{
		Book:          firstNonEmpty(ch.Book.CommonName, book.CommonName, book.Name, book.ID),
		BookID:        book.ID,
		Chapter:       chapterNum,
		Translation:   firstNonEmpty(ch.Translation.ShortName, s.corpus.ShortName, s.corpus.Translation),
		TranslationID: s.corpus.Translation,
		VerseStart:    start,
		VerseEnd:      end,
		Content:       content,
	}
	if ch.Number > 0 {
		p.Chapter = ch.Number
	}
	return p, nil
}

// Window picks an inclusive verse range of size verses from a chapter of
// total verses. A chapter shorter than size yields the whole chapter.
func Window(rnd *rand.Rand, total, size int) (start, end int) {
	if size < 1 {
		size = 1
	}
	if total <= size {
		return 1, total
	}
	start = 1 + rnd.Intn(total-size+1)
	return start, start + size - 1
}

// Flatten joins the text of verses numbered start..end with single spaces.
// Empty fragments left by line breaks and notes are dropped.
func Flatten(verses []helloao.Verse, start, end int) string {
	parts := make([]string, 0, len(verses))
	for _, v := range verses {
		if v.Number < start || v.Number > end {
			continue
		}
		for _, frag := range v.Fragments {
			frag = strings.Join(strings.Fields(frag), " ")
			if frag == "" {
				continue
			}
			parts = append(parts, frag)
		}
	}
	return strings.Join(parts, " ")
}

var quoteReplacer = strings.NewReplacer("‘", "'", "’", "'")

// Normalize replaces typographic single quotes with the plain apostrophe.
func Normalize(text string) string {
	return quoteReplacer.Replace(text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Package helloao is a client for the helloao Free Use Bible API.
package helloao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://bible.helloao.org"

const defaultTimeout = 30 * time.Second

// Client fetches translations, book lists and chapters.
type Client struct {
	baseURL string
	http    *http.Client
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status from %s: %s", e.URL, e.Status)
}

// TranslationInfo is the translation metadata echoed by the API.
type TranslationInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ShortName     string `json:"shortName"`
	EnglishName   string `json:"englishName"`
	Language      string `json:"language"`
	NumberOfBooks int    `json:"numberOfBooks"`
}

// BookInfo is the book metadata echoed by the API.
type BookInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	CommonName       string `json:"commonName"`
	Order            int    `json:"order"`
	NumberOfChapters int    `json:"numberOfChapters"`
}

// BooksResponse is the payload of /api/{translation}/books.json.
type BooksResponse struct {
	Translation TranslationInfo `json:"translation"`
	Books       []BookInfo      `json:"books"`
}

// Verse is a numbered verse flattened into text fragments. Line breaks and
// other structural markers are kept as empty fragments.
type Verse struct {
	Number    int
	Fragments []string
}

// Chapter is a decoded chapter document.
type Chapter struct {
	Translation    TranslationInfo
	Book           BookInfo
	Number         int
	NumberOfVerses int
	Verses         []Verse
}

// New returns a client for baseURL. Empty values fall back to defaults.
func New(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Translations lists the translations available from the API.
func (c *Client) Translations(ctx context.Context) ([]TranslationInfo, error) {
	body, err := c.get(ctx, "api", "available_translations.json")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Translations []TranslationInfo `json:"translations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode translations: %w", err)
	}
	return payload.Translations, nil
}

// Books fetches the book list of a translation.
func (c *Client) Books(ctx context.Context, translation string) (BooksResponse, error) {
	if translation == "" {
		return BooksResponse{}, fmt.Errorf("translation is required")
	}
	body, err := c.get(ctx, "api", translation, "books.json")
	if err != nil {
		return BooksResponse{}, err
	}
	var payload BooksResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return BooksResponse{}, fmt.Errorf("failed to decode books: %w", err)
	}
	if len(payload.Books) == 0 {
		return BooksResponse{}, fmt.Errorf("no books listed for %s", translation)
	}
	return payload, nil
}

// Chapter fetches and decodes a single chapter.
func (c *Client) Chapter(ctx context.Context, translation, bookID string, number int) (Chapter, error) {
	if translation == "" || bookID == "" {
		return Chapter{}, fmt.Errorf("translation and book are required")
	}
	if number < 1 {
		return Chapter{}, fmt.Errorf("invalid chapter number %d", number)
	}
	body, err := c.get(ctx, "api", translation, bookID, fmt.Sprintf("%d.json", number))
	if err != nil {
		return Chapter{}, err
	}
	return DecodeChapter(body)
}

// DecodeChapter decodes a chapter document.
func DecodeChapter(body []byte) (Chapter, error) {
	if !gjson.ValidBytes(body) {
		return Chapter{}, fmt.Errorf("failed to decode chapter: invalid JSON")
	}
	doc := gjson.ParseBytes(body)
	chapterNode := doc.Get("chapter")
	if !chapterNode.Exists() {
		return Chapter{}, fmt.Errorf("failed to decode chapter: missing chapter object")
	}

	var ch Chapter
	if node := doc.Get("translation"); node.IsObject() {
		if err := json.Unmarshal([]byte(node.Raw), &ch.Translation); err != nil {
			return Chapter{}, fmt.Errorf("failed to decode chapter translation: %w", err)
		}
	}
	if node := doc.Get("book"); node.IsObject() {
		if err := json.Unmarshal([]byte(node.Raw), &ch.Book); err != nil {
			return Chapter{}, fmt.Errorf("failed to decode chapter book: %w", err)
		}
	}
	ch.Number = int(chapterNode.Get("number").Int())

	chapterNode.Get("content").ForEach(func(_, item gjson.Result) bool {
		if item.Get("type").String() != "verse" {
			return true
		}
		verse := Verse{Number: int(item.Get("number").Int())}
		item.Get("content").ForEach(func(_, part gjson.Result) bool {
			verse.Fragments = append(verse.Fragments, fragmentText(part))
			return true
		})
		ch.Verses = append(ch.Verses, verse)
		return true
	})

	ch.NumberOfVerses = int(doc.Get("numberOfVerses").Int())
	if ch.NumberOfVerses == 0 {
		for _, v := range ch.Verses {
			if v.Number > ch.NumberOfVerses {
				ch.NumberOfVerses = v.Number
			}
		}
	}
	return ch, nil
}

// fragmentText returns the text carried by one verse content element.
// Strings are text, {"text": ...} objects are formatted text, and markers
// such as {"lineBreak": true} or {"noteId": 3} carry none.
func fragmentText(part gjson.Result) string {
	switch {
	case part.Type == gjson.String:
		return part.String()
	case part.IsObject():
		if text := part.Get("text"); text.Exists() {
			return text.String()
		}
		return ""
	default:
		return ""
	}
}

func (c *Client) get(ctx context.Context, segments ...string) ([]byte, error) {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	target := c.baseURL + "/" + strings.Join(escaped, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: target, Status: resp.Status, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

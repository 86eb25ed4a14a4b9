package helloao

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const psalmChapter = `{
  "translation": {"id": "eng_asv", "name": "American Standard Version", "shortName": "ASV", "englishName": "American Standard Version", "language": "eng", "numberOfBooks": 66},
  "book": {"id": "PSA", "name": "Psalms", "commonName": "Psalms", "order": 19, "numberOfChapters": 150},
  "chapter": {
    "number": 23,
    "content": [
      {"type": "heading", "content": ["A Psalm of David."]},
      {"type": "verse", "number": 1, "content": [{"text": "Jehovah is my shepherd;", "poem": 1}, {"lineBreak": true}, {"text": "I shall not want.", "poem": 2}]},
      {"type": "line_break"},
      {"type": "verse", "number": 2, "content": ["He maketh me to lie down", {"noteId": 0}, " in green pastures;"]}
    ],
    "footnotes": []
  },
  "numberOfVerses": 6
}`

func TestDecodeChapterFlattensMarkup(t *testing.T) {
	ch, err := DecodeChapter([]byte(psalmChapter))
	if err != nil {
		t.Fatalf("DecodeChapter failed: %v", err)
	}
	if ch.Number != 23 || ch.NumberOfVerses != 6 {
		t.Fatalf("unexpected chapter header: number=%d verses=%d", ch.Number, ch.NumberOfVerses)
	}
	if ch.Book.CommonName != "Psalms" || ch.Translation.ShortName != "ASV" {
		t.Fatalf("unexpected metadata: %+v %+v", ch.Book, ch.Translation)
	}
	if len(ch.Verses) != 2 {
		t.Fatalf("expected 2 verses (headings skipped), got %d", len(ch.Verses))
	}
	first := ch.Verses[0]
	expected := []string{"Jehovah is my shepherd;", "", "I shall not want."}
	if len(first.Fragments) != len(expected) {
		t.Fatalf("expected %d fragments, got %v", len(expected), first.Fragments)
	}
	for i, frag := range expected {
		if first.Fragments[i] != frag {
			t.Fatalf("fragment %d: expected %q, got %q", i, frag, first.Fragments[i])
		}
	}
	second := ch.Verses[1]
	if second.Number != 2 || second.Fragments[1] != "" {
		t.Fatalf("expected footnote marker to become empty fragment, got %v", second.Fragments)
	}
}

func TestDecodeChapterInferVerseCount(t *testing.T) {
	body := `{"chapter": {"number": 1, "content": [
		{"type": "verse", "number": 1, "content": ["a"]},
		{"type": "verse", "number": 2, "content": ["b"]}
	]}}`
	ch, err := DecodeChapter([]byte(body))
	if err != nil {
		t.Fatalf("DecodeChapter failed: %v", err)
	}
	if ch.NumberOfVerses != 2 {
		t.Fatalf("expected inferred verse count 2, got %d", ch.NumberOfVerses)
	}
}

func TestDecodeChapterRejectsInvalid(t *testing.T) {
	for _, body := range []string{`{"chapter":`, `{"book": {}}`, `<html>`} {
		if _, err := DecodeChapter([]byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestClientChapter(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(psalmChapter))
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL+"/", time.Second)
	ch, err := client.Chapter(context.Background(), "eng_asv", "PSA", 23)
	if err != nil {
		t.Fatalf("Chapter failed: %v", err)
	}
	if gotPath != "/api/eng_asv/PSA/23.json" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if len(ch.Verses) != 2 {
		t.Fatalf("expected 2 verses, got %d", len(ch.Verses))
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, time.Second)
	_, err := client.Chapter(context.Background(), "eng_asv", "GEN", 99)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", statusErr.Code)
	}
}

func TestClientBooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/eng_kjv/books.json") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"translation": {"id": "eng_kjv", "shortName": "KJV"},
			"books": [{"id": "GEN", "name": "Genesis", "commonName": "Genesis", "order": 1, "numberOfChapters": 50}]}`))
	}))
	t.Cleanup(srv.Close)

	books, err := New(srv.URL, time.Second).Books(context.Background(), "eng_kjv")
	if err != nil {
		t.Fatalf("Books failed: %v", err)
	}
	if books.Translation.ShortName != "KJV" || len(books.Books) != 1 || books.Books[0].NumberOfChapters != 50 {
		t.Fatalf("unexpected books payload: %+v", books)
	}
}

func TestClientTranslations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"translations": [{"id": "eng_asv", "shortName": "ASV"}, {"id": "BSB", "shortName": "BSB"}]}`))
	}))
	t.Cleanup(srv.Close)

	list, err := New(srv.URL, time.Second).Translations(context.Background())
	if err != nil {
		t.Fatalf("Translations failed: %v", err)
	}
	if len(list) != 2 || list[1].ID != "BSB" {
		t.Fatalf("unexpected translations: %+v", list)
	}
}

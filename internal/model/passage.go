package model

import (
	"fmt"
	"strings"
)

// Reference formats the passage as "Book 1:2-6 (SHORT)".
func (p Passage) Reference() string {
	verses := fmt.Sprintf("%d", p.VerseStart)
	if p.VerseEnd > p.VerseStart {
		verses = fmt.Sprintf("%d-%d", p.VerseStart, p.VerseEnd)
	}
	ref := fmt.Sprintf("%s %d:%s", p.Book, p.Chapter, verses)
	if t := strings.TrimSpace(p.Translation); t != "" {
		ref += " (" + t + ")"
	}
	return ref
}

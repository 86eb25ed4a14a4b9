package challenge

import (
	"math"
	"time"

	"github.com/verte-zerg/versetype/internal/model"
)

// charsPerWord is the conventional word length used for WPM.
const charsPerWord = 5

// ElapsedSeconds returns floor((end - start) / 1s). Both times must be set.
func ElapsedSeconds(start, end time.Time) (int, bool) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0, false
	}
	return int(end.Sub(start) / time.Second), true
}

// Accuracy returns first-attempt-correct cells over attempted cells, rounded
// to two decimals. There is no value until a cell has been attempted.
func Accuracy(cells []model.Cell) (float64, bool) {
	attempted, firstCorrect := counts(cells)
	if attempted == 0 {
		return 0, false
	}
	return math.Round(float64(firstCorrect)/float64(attempted)*100) / 100, true
}

// WPM returns floor((cells / 5 * accuracy) / minutes). There is no value
// for a zero elapsed time.
func WPM(cellCount int, accuracy float64, elapsedSeconds int) (int, bool) {
	if elapsedSeconds <= 0 {
		return 0, false
	}
	words := float64(cellCount) / charsPerWord * accuracy
	minutes := float64(elapsedSeconds) / 60
	return int(math.Floor(words / minutes)), true
}

func counts(cells []model.Cell) (attempted, firstCorrect int) {
	for _, c := range cells {
		if !c.Attempted() {
			continue
		}
		attempted++
		if c.FirstAttempt == model.AttemptCorrect {
			firstCorrect++
		}
	}
	return attempted, firstCorrect
}

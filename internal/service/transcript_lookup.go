package service

import "github.com/noah-isme/sma-transcript-api/internal/models"

// scoreEntry is the already-computed score of one entity.
type scoreEntry struct {
	averageMark float64
	marks       []models.NotationMark
}

type scoreKey struct {
	level models.GradingLevel
	id    string
}

// scoreLookup maps entities to their computed scores for a single calculation
// run. Aggregators write their entry before their own decision so that their
// AVERAGE conditions and later ancestors can read it.
type scoreLookup struct {
	entries map[scoreKey]scoreEntry
}

func newScoreLookup(results []models.StudentTestResult) *scoreLookup {
	l := &scoreLookup{entries: make(map[scoreKey]scoreEntry, len(results))}
	for _, result := range results {
		l.put(models.GradingLevelTest, result.TestID, scoreEntry{averageMark: result.AverageMark, marks: result.Marks})
	}
	return l
}

func (l *scoreLookup) put(level models.GradingLevel, id string, entry scoreEntry) {
	l.entries[scoreKey{level: level, id: id}] = entry
}

func (l *scoreLookup) get(level models.GradingLevel, id string) (scoreEntry, bool) {
	entry, ok := l.entries[scoreKey{level: level, id: id}]
	return entry, ok
}

// notationMark finds a notation by its text. The second return value is false
// when the notation is absent.
func notationMark(marks []models.NotationMark, text string) (float64, bool) {
	for _, m := range marks {
		if m.NotationText == text {
			return m.Mark, true
		}
	}
	return 0, false
}

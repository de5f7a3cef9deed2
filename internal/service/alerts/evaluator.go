package alerts

import (
	"strings"
	"time"

	"github.com/lavilla/almacen/internal/domain/models"
)

const isoDate = "2006-01-02"

// acceptedLayouts lists the date formats found in hand-edited inventory sheets.
// Single digit month and day fields also accept two digits. Slashed dates are
// day first, as written in Peruvian sheets.
var acceptedLayouts = []string{
	"2006-1-2",
	time.RFC3339,
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-01-02T15:04:05",
	"2/1/2006",
	"2006/1/2",
}

// Evaluator classifies inventory rows relative to the current date.
type Evaluator struct {
	loc *time.Location
	now func() time.Time
}

// Option customises an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator builds an evaluator computing "today" in loc (UTC when nil).
func NewEvaluator(loc *time.Location, opts ...Option) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	e := &Evaluator{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the current calendar date at midnight in the evaluator location.
func (e *Evaluator) Today() time.Time {
	return truncateDay(e.now().In(e.loc))
}

// IsExpired reports whether the date is strictly before today. Missing or
// unparseable dates are never expired.
func (e *Evaluator) IsExpired(date string) bool {
	parsed, ok := ParseDate(date, e.loc)
	if !ok {
		return false
	}
	return parsed.Before(e.Today())
}

// Classify derives the alert class of a row. Out of stock wins over expired.
func (e *Evaluator) Classify(p models.Product) models.AlertClass {
	switch {
	case p.Stock == 0:
		return models.AlertOutOfStock
	case e.IsExpired(p.ExpirationDate):
		return models.AlertExpired
	default:
		return models.AlertNormal
	}
}

// ParseDate parses value with any accepted layout and returns the calendar day in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range acceptedLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		// Only the calendar date written in the value matters.
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// NormalizeDate rewrites parseable dates as YYYY-MM-DD. Unparseable input is
// returned trimmed so it is kept as entered.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if t, ok := ParseDate(value, time.UTC); ok {
		return t.Format(isoDate)
	}
	return value
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

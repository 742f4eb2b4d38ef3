// Package dispatch holds the storage free rules of the dispatch board:
// inactivity cutoffs, relation reconciling and unit normalization.
package dispatch

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Field is a timestamp column an inactivity timeout can apply to
type Field string

const (
	FieldUpdatedAt        Field = "updated_at"
	FieldLastStatusChange Field = "last_status_change_timestamp"
)

func (f Field) valid() bool {
	return f == FieldUpdatedAt || f == FieldLastStatusChange
}

// InactivityFilter selects rows whose Field is at or before Cutoff.
// A nil filter means the timeout is disabled and every method is a no-op.
type InactivityFilter struct {
	Field  Field
	Cutoff time.Time
}

// NewInactivityFilter returns nil when the timeout is unset or not positive
func NewInactivityFilter(now time.Time, timeoutMinutes *int, field Field) *InactivityFilter {
	if timeoutMinutes == nil || *timeoutMinutes <= 0 || !field.valid() {
		return nil
	}
	return &InactivityFilter{
		Field:  field,
		Cutoff: now.Add(-time.Duration(*timeoutMinutes) * time.Minute),
	}
}

// ParseTimeout reads a timeout from user input. Anything that is not a
// positive whole number disables the timeout instead of failing.
func ParseTimeout(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// Stale is the predicate field <= cutoff
func (f *InactivityFilter) Stale() clause.Expression {
	return clause.Lte{Column: clause.Column{Name: string(f.Field)}, Value: f.Cutoff}
}

// Fresh is the complement of Stale for non-null timestamps
func (f *InactivityFilter) Fresh() clause.Expression {
	return clause.Gt{Column: clause.Column{Name: string(f.Field)}, Value: f.Cutoff}
}

// StaleScope restricts a query to stale rows, or to nothing when disabled
func (f *InactivityFilter) StaleScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f == nil {
			return db.Where("1 = 0")
		}
		return db.Where(f.Stale())
	}
}

// FreshScope hides stale rows; a disabled filter hides nothing
func (f *InactivityFilter) FreshScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f == nil {
			return db
		}
		return db.Where(f.Fresh())
	}
}

// IsStale applies the predicate to one timestamp. Null timestamps are never stale.
func (f *InactivityFilter) IsStale(t *time.Time) bool {
	if f == nil || t == nil {
		return false
	}
	return !t.After(f.Cutoff)
}

// Timeout is an inactivity timeout read from admin input. Numbers and
// numeric strings are accepted; anything else disables the timeout.
type Timeout struct {
	Minutes *int
}

func (t *Timeout) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	t.Minutes = ParseTimeout(raw)
	return nil
}

func (t Timeout) MarshalJSON() ([]byte, error) {
	if t.Minutes == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*t.Minutes)), nil
}

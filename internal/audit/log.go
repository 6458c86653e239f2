// Package audit keeps an in-memory history of applied actions with full
// before/after profile snapshots, supporting last-in-first-out undo.
//
// The log does no locking of its own. Callers are expected to serialize
// access per user; interleaving apply and undo for the same user from
// concurrent goroutines is a caller bug.
package audit

import (
	"fmt"
	"time"

	"github.com/pfsim/pfsim/internal/domain"
)

// Log records executed actions per user, newest last.
type Log struct {
	records map[string][]domain.ExecutedActionRecord
	counter int

	// now supplies timestamps; replaced in tests.
	now func() time.Time
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{
		records: make(map[string][]domain.ExecutedActionRecord),
		now:     time.Now,
	}
}

// Append records an applied action and returns the stored record. IDs embed a
// timestamp plus a process-wide counter so two appends in the same
// millisecond stay distinct.
func (l *Log) Append(userID string, action domain.FinancialAction, previous, next domain.UserProfile) domain.ExecutedActionRecord {
	ts := l.now()
	l.counter++
	record := domain.ExecutedActionRecord{
		ID:            fmt.Sprintf("exec_%d_%d", ts.UnixMilli(), l.counter),
		UserID:        userID,
		Action:        action,
		PreviousState: previous.Clone(),
		NewState:      next.Clone(),
		Timestamp:     ts,
	}
	l.records[userID] = append(l.records[userID], record)
	return record
}

// History returns up to limit records for the user, newest first. A
// non-positive limit returns everything.
func (l *Log) History(userID string, limit int) []domain.ExecutedActionRecord {
	stored := l.records[userID]
	n := len(stored)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ExecutedActionRecord, 0, n)
	for i := len(stored) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, stored[i])
	}
	return out
}

// RecordByID returns the record with the given id, or nil when absent.
func (l *Log) RecordByID(userID, recordID string) *domain.ExecutedActionRecord {
	for i := range l.records[userID] {
		if l.records[userID][i].ID == recordID {
			record := l.records[userID][i]
			return &record
		}
	}
	return nil
}

// LastRecord returns the most recent record for the user, or nil when the
// history is empty.
func (l *Log) LastRecord(userID string) *domain.ExecutedActionRecord {
	stored := l.records[userID]
	if len(stored) == 0 {
		return nil
	}
	record := stored[len(stored)-1]
	return &record
}

// RemoveLastRecord pops the most recent record for the user, returning false
// when there is nothing to remove. Undo is strictly last-in-first-out:
// restore LastRecord's PreviousState, then call this.
func (l *Log) RemoveLastRecord(userID string) bool {
	stored := l.records[userID]
	if len(stored) == 0 {
		return false
	}
	l.records[userID] = stored[:len(stored)-1]
	return true
}

// Len returns the number of records held for the user.
func (l *Log) Len(userID string) int {
	return len(l.records[userID])
}

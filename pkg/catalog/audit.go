package catalog

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
)

// AuditLog appends and reads audit entries. It exposes no update or delete.
type AuditLog struct {
	repo Repository
	now  func() time.Time
}

// NewAuditLog creates an audit log over repo.
func NewAuditLog(repo Repository) *AuditLog {
	return &AuditLog{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Append records that actorID performed action on the given subject.
func (a *AuditLog) Append(ctx context.Context, entity Entity, subjectID string, action Action, actorID string) (*LogEntry, error) {
	entry := &LogEntry{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Entity:    entity,
		Action:    action,
		ActorID:   actorID,
		Timestamp: a.now(),
	}
	if err := a.repo.AppendLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// QueryBySubject returns the entries for a subject, newest first.
func (a *AuditLog) QueryBySubject(ctx context.Context, subjectID string) ([]*LogEntry, error) {
	return a.query(ctx, LogQuery{SubjectID: subjectID})
}

// QueryByActor returns the entries recorded for an actor, newest first.
func (a *AuditLog) QueryByActor(ctx context.Context, actorID string) ([]*LogEntry, error) {
	return a.query(ctx, LogQuery{ActorID: actorID})
}

// query returns matching entries newest first. Entries with equal timestamps
// keep reverse append order, so the later of two writes in the same instant
// still comes first.
func (a *AuditLog) query(ctx context.Context, q LogQuery) ([]*LogEntry, error) {
	entries, err := Collect(a.repo.ScanLogs(ctx, q))
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

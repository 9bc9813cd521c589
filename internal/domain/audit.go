package domain

import "time"

// UnknownActorLabel is shown for audit entries whose actor no longer resolves.
const UnknownActorLabel = "Unknown user"

// AuditEntry records one content mutation. Entries are append-only.
type AuditEntry struct {
	ID         int64
	ActorID    *int64 // nil once the actor account is removed
	ActorName  string // read model only
	Action     string // e.g. "Created document"
	TargetID   int64
	TargetKind Kind
	CreatedAt  time.Time
}

// NewAuditEntry builds the entry for action on a record of schema s.
func NewAuditEntry(actor Actor, action AuditAction, s Schema, targetID int64) AuditEntry {
	id := actor.ID
	return AuditEntry{
		ActorID:    &id,
		Action:     action.Describe(s.Noun),
		TargetID:   targetID,
		TargetKind: s.Kind,
	}
}

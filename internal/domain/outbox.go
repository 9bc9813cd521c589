package domain

import "time"

// OutboxMessage is a pending "record created" notification. It is written in
// the same transaction as the record and its audit entry.
type OutboxMessage struct {
	ID        int64
	Kind      Kind
	Snapshot  Snapshot
	Attempts  int
	LastError string
	CreatedAt time.Time
}

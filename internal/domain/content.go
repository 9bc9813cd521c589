package domain

import (
	"fmt"
	"time"
)

// SearchResultLimit caps the number of records a search returns.
const SearchResultLimit = 50

// Record is one published content item of any kind. Fields holds the
// kind-specific values; a field that is absent from the map is NULL.
type Record struct {
	ID        int64
	Kind      Kind
	Fields    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Value returns the field value, or "" when the field is NULL.
func (r Record) Value(field string) string {
	return r.Fields[field]
}

// Title returns the record title.
func (r Record) Title() string {
	return r.Fields["title"]
}

// SearchCriteria selects records by keyword and exact-match filters.
// Empty values mean "no constraint".
type SearchCriteria struct {
	Keyword string
	Filters map[string]string
}

// Snapshot is the part of a created record carried to the notification worker.
type Snapshot struct {
	RecordID int64  `json:"record_id"`
	Title    string `json:"title"`
	Link     string `json:"link"`
}

// SnapshotOf captures the title and primary link of a record.
func SnapshotOf(s Schema, r Record) Snapshot {
	return Snapshot{RecordID: r.ID, Title: r.Title(), Link: r.Value(s.LinkField)}
}

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// NoticeFor renders the notification email for a newly created record.
func NoticeFor(s Schema, snap Snapshot, to string) Message {
	n := s.Notice
	return Message{
		To:      to,
		Subject: fmt.Sprintf("New %s: %s", n.Subject, snap.Title),
		Body:    fmt.Sprintf("A new %s \"%s\" has been %s.\n%s: %s", n.Noun, snap.Title, n.Verb, n.LinkLead, snap.Link),
	}
}

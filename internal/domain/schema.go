package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the wire and storage format of date fields.
const DateLayout = "2006-01-02"

// FieldType describes how a field is stored and validated.
type FieldType uint8

const (
	FieldText FieldType = iota
	FieldDate
)

// Field is one column of a content kind.
type Field struct {
	Name   string
	Type   FieldType
	MaxLen int // 0 = unbounded
}

// Notice holds the wording of the email sent when a record of the kind is created.
type Notice struct {
	Subject  string // "New <Subject>: <title>"
	Noun     string // used in the body: `A new <Noun> "<title>" has been <Verb>.`
	Verb     string
	LinkLead string // text in front of the primary link
}

// Schema is the declarative description of a content kind.
type Schema struct {
	Kind       Kind
	Table      string
	Collection string // URL path segment
	Noun       string // used in audit actions, e.g. "Created news article"

	Fields     []Field
	Searchable []string
	Required   []string
	Filterable []string

	// LinkField is the record field carried in notification messages.
	LinkField string
	// SubscriptionFlag is the subscriptions column that opts a user in to this kind.
	SubscriptionFlag string

	Notice Notice
}

var registry = map[Kind]Schema{
	KindDocument: {
		Kind:       KindDocument,
		Table:      "documents",
		Collection: "documents",
		Noun:       "document",
		Fields: []Field{
			{Name: "title", MaxLen: 255},
			{Name: "type", MaxLen: 255},
			{Name: "category", MaxLen: 255},
			{Name: "issuing_authority", MaxLen: 255},
			{Name: "description"},
			{Name: "keywords"},
			{Name: "applicable_to"},
			{Name: "external_url", MaxLen: 2048},
			{Name: "source", MaxLen: 255},
		},
		Searchable:       []string{"title", "description", "keywords", "applicable_to", "issuing_authority"},
		Required:         []string{"title", "external_url"},
		Filterable:       []string{"category", "type"},
		LinkField:        "external_url",
		SubscriptionFlag: "notify_documents",
		Notice:           Notice{Subject: "Document", Noun: "document", Verb: "added", LinkLead: "View"},
	},
	KindEvent: {
		Kind:       KindEvent,
		Table:      "events",
		Collection: "events",
		Noun:       "event",
		Fields: []Field{
			{Name: "title", MaxLen: 255},
			{Name: "description"},
			{Name: "event_date", Type: FieldDate},
			{Name: "location", MaxLen: 255},
			{Name: "host", MaxLen: 255},
			{Name: "link_or_rsvp", MaxLen: 2048},
			{Name: "category", MaxLen: 255},
			{Name: "keywords"},
			{Name: "source", MaxLen: 255},
		},
		Searchable:       []string{"title", "description", "keywords", "location", "host"},
		Required:         []string{"title", "description", "event_date", "link_or_rsvp"},
		Filterable:       []string{"category"},
		LinkField:        "link_or_rsvp",
		SubscriptionFlag: "notify_events",
		Notice:           Notice{Subject: "Event", Noun: "event", Verb: "added", LinkLead: "Check it here"},
	},
	KindNews: {
		Kind:       KindNews,
		Table:      "news_updates",
		Collection: "news",
		Noun:       "news article",
		Fields: []Field{
			{Name: "title", MaxLen: 255},
			{Name: "content"},
			{Name: "author", MaxLen: 255},
			{Name: "publish_date", Type: FieldDate},
			{Name: "category", MaxLen: 255},
			{Name: "keywords"},
			{Name: "external_url", MaxLen: 2048},
			{Name: "source", MaxLen: 255},
		},
		Searchable:       []string{"title", "content", "keywords", "author"},
		Required:         []string{"title", "content", "external_url"},
		Filterable:       []string{"category"},
		LinkField:        "external_url",
		SubscriptionFlag: "notify_news",
		Notice:           Notice{Subject: "News Article", Noun: "news article", Verb: "published", LinkLead: "Read more"},
	},
}

// SchemaFor returns the schema of a kind.
func SchemaFor(k Kind) (Schema, bool) {
	s, ok := registry[k]
	return s, ok
}

// MustSchema is SchemaFor for kinds known to be valid; it panics otherwise.
func MustSchema(k Kind) Schema {
	s, ok := registry[k]
	if !ok {
		panic(fmt.Sprintf("domain: no schema registered for kind %d", k))
	}
	return s
}

// KindByCollection resolves a URL path segment ("documents", "events", "news").
func KindByCollection(collection string) (Kind, bool) {
	for _, k := range Kinds() {
		if registry[k].Collection == collection {
			return k, true
		}
	}
	return 0, false
}

// FieldNames returns the ordered column names of the kind.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) IsSearchable(name string) bool { return slices.Contains(s.Searchable, name) }
func (s Schema) IsFilterable(name string) bool { return slices.Contains(s.Filterable, name) }
func (s Schema) IsRequired(name string) bool   { return slices.Contains(s.Required, name) }

// Normalize trims surrounding whitespace from every value.
func (s Schema) Normalize(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// ValidateCreate checks a full set of values for a new record: every required
// field must be present and non-empty.
func (s Schema) ValidateCreate(values map[string]string) error {
	errs := s.checkValues(values)
	for _, name := range s.Required {
		if strings.TrimSpace(values[name]) == "" {
			errs = append(errs, FieldError{Field: name, Message: "required"})
		}
	}
	if len(errs) > 0 {
		sortFieldErrors(errs)
		return NewValidationErrors(errs)
	}
	return nil
}

// ValidatePatch checks a partial update. Omitted fields are left alone; an
// explicitly empty value clears the field, which is rejected for required fields.
func (s Schema) ValidatePatch(values map[string]string) error {
	if len(values) == 0 {
		return NewValidationError("input", "at least one field must be provided")
	}
	errs := s.checkValues(values)
	for name, v := range values {
		if s.IsRequired(name) && strings.TrimSpace(v) == "" {
			errs = append(errs, FieldError{Field: name, Message: "required"})
		}
	}
	if len(errs) > 0 {
		sortFieldErrors(errs)
		return NewValidationErrors(errs)
	}
	return nil
}

func (s Schema) checkValues(values map[string]string) []FieldError {
	var errs []FieldError
	for _, f := range s.Fields {
		v, ok := values[f.Name]
		if !ok || v == "" {
			continue
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(v) > f.MaxLen {
			errs = append(errs, FieldError{Field: f.Name, Message: fmt.Sprintf("max %d characters", f.MaxLen)})
		}
		if f.Type == FieldDate {
			if _, err := time.Parse(DateLayout, v); err != nil {
				errs = append(errs, FieldError{Field: f.Name, Message: "must be a date (YYYY-MM-DD)"})
			}
		}
	}
	for name := range values {
		if _, ok := s.Field(name); !ok {
			errs = append(errs, FieldError{Field: name, Message: "unknown field"})
		}
	}
	return errs
}

func sortFieldErrors(errs []FieldError) {
	slices.SortStableFunc(errs, func(a, b FieldError) int { return strings.Compare(a.Field, b.Field) })
}

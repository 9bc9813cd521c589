package domain

// Kind is the closed set of publishable content categories.
// The zero value is not a valid kind.
type Kind uint8

const (
	KindDocument Kind = iota + 1
	KindEvent
	KindNews
)

var kindNames = map[Kind]string{
	KindDocument: "document",
	KindEvent:    "event",
	KindNews:     "news",
}

// String returns the stable identifier stored in audit entries and outbox rows.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves a stored kind identifier ("document", "event", "news").
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns every content kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindDocument, KindEvent, KindNews}
}

package accounts

import "github.com/google/uuid"

// Ref addresses an account either by internal id or by account number.
// Operations resolve a Ref exactly once at their entry point instead of
// carrying two parallel lookup paths.
type Ref struct {
	id     uuid.UUID
	number string
}

// ByID builds a Ref from an internal account id.
func ByID(id uuid.UUID) Ref {
	return Ref{id: id}
}

// ByNumber builds a Ref from an account number.
func ByNumber(number string) Ref {
	return Ref{number: number}
}

// ParseRef interprets raw as a UUID when possible, otherwise as an
// account number.
func ParseRef(raw string) Ref {
	if id, err := uuid.Parse(raw); err == nil {
		return ByID(id)
	}
	return ByNumber(raw)
}

// ID returns the id half of the reference; ok is false for number refs.
func (r Ref) ID() (uuid.UUID, bool) {
	return r.id, r.id != uuid.Nil
}

// Number returns the number half of the reference; ok is false for id refs.
func (r Ref) Number() (string, bool) {
	return r.number, r.number != ""
}

// IsZero reports whether the reference carries neither an id nor a number.
func (r Ref) IsZero() bool {
	return r.id == uuid.Nil && r.number == ""
}

func (r Ref) String() string {
	if r.id != uuid.Nil {
		return r.id.String()
	}
	return r.number
}

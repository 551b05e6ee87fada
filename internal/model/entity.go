package model

// EntityID uniquely identifies an interactive entity within a session
type EntityID string

// KeyID identifies a key type; doors reference the key they require
type KeyID int

// EntityKind distinguishes interactive entity types
type EntityKind string

const (
	EntityKindKey      EntityKind = "key"
	EntityKindDoor     EntityKind = "door"
	EntityKindCheese   EntityKind = "cheese"
	EntityKindSafeZone EntityKind = "safe_zone"
	EntityKindExit     EntityKind = "exit"
)

// Vec2 is a 2D position or direction
type Vec2 struct {
	X float64
	Y float64
}

// Entity is an interactive world entity. Kind-specific fields are only
// meaningful for the matching kind; the zero value is ignored elsewhere.
// Collected and Open are mutated exclusively by the server.
type Entity struct {
	ID       EntityID
	Kind     EntityKind
	Position Vec2

	// Key fields
	KeyID   KeyID
	KeyName string

	// Key / cheese: one-way false->true, exactly one winner under contention
	Collected bool

	// Cheese fields
	Value int

	// Door fields
	RequiredKeyID  KeyID
	ConsumesKey    bool
	HunterCanForce bool
	Open           bool

	// Safe zone fields
	Blocked   bool
	Occupants []ConnectionID
}

// Occupied reports whether a safe zone currently holds the given connection
func (e *Entity) Occupied(id ConnectionID) bool {
	for _, o := range e.Occupants {
		if o == id {
			return true
		}
	}
	return false
}

package core

import "github.com/google/uuid"

// ObjectID is a stable identifier for a scene object. Caches keyed by object
// must use it instead of pointer identity so a recycled allocation can never
// be mistaken for the object that previously lived there.
type ObjectID uuid.UUID

// InvalidObjectID is the zero identifier, never handed out by NewObjectID.
var InvalidObjectID = ObjectID(uuid.Nil)

func NewObjectID() ObjectID {
	return ObjectID(uuid.New())
}

// ParseObjectID parses the canonical textual form of an identifier.
func ParseObjectID(s string) (ObjectID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return InvalidObjectID, err
	}
	return ObjectID(id), nil
}

func (id ObjectID) IsValid() bool {
	return id != InvalidObjectID
}

func (id ObjectID) String() string {
	return uuid.UUID(id).String()
}

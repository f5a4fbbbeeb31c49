package model

// EntityRecord is the game-state store's view of a raw entity, joined with
// its parent (if any) and the spawner asset name covering it. ParentID 0
// means the entity has no parent.
type EntityRecord struct {
	ID          int64
	Class       string
	ParentID    int64
	ParentClass string
	Asset       string
}

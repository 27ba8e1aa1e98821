package connect

import (
	"fmt"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// ObjectID is a connection-local identifier for an entity. Different
// connections assign different IDs to the same entity; IDs start at 1 and
// are never reused within a connection.
type ObjectID uint64

// ObjectMap is one connection's injective Entity-to-ObjectID mapping plus
// its inverse.
type ObjectMap struct {
	byEntity map[engine.Entity]ObjectID
	byObject map[ObjectID]engine.Entity
	next     ObjectID
}

func NewObjectMap() *ObjectMap {
	return &ObjectMap{
		byEntity: make(map[engine.Entity]ObjectID),
		byObject: make(map[ObjectID]engine.Entity),
		next:     1,
	}
}

// Register allocates an ID for an entity not yet in the map.
func (m *ObjectMap) Register(e engine.Entity) (ObjectID, error) {
	if id, ok := m.byEntity[e]; ok {
		return id, fmt.Errorf("entity %s already registered as object %d", e, id)
	}
	id := m.next
	m.next++
	m.byEntity[e] = id
	m.byObject[id] = e
	return id, nil
}

func (m *ObjectMap) Object(e engine.Entity) (ObjectID, bool) {
	id, ok := m.byEntity[e]
	return id, ok
}

func (m *ObjectMap) Entity(id ObjectID) (engine.Entity, bool) {
	e, ok := m.byObject[id]
	return e, ok
}

// Remove drops the mapping in both directions and returns the freed ID.
func (m *ObjectMap) Remove(e engine.Entity) (ObjectID, bool) {
	id, ok := m.byEntity[e]
	if !ok {
		return 0, false
	}
	delete(m.byEntity, e)
	delete(m.byObject, id)
	return id, true
}

func (m *ObjectMap) Len() int {
	return len(m.byEntity)
}

package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Entity is a generation-stamped handle to a row in a State. It carries no
// data of its own; components attached through the State do. A destroyed
// entity's index may be reused, but the bumped generation makes every old
// handle detectably stale. The zero Entity is never valid.
type Entity struct {
	index uint32
	gen   uint32
}

func (e Entity) IsZero() bool {
	return e.gen == 0
}

func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.index, e.gen)
}

// ConnectionID identifies one client connection. The engine never creates
// connections itself; it only routes per-connection notifications by ID.
type ConnectionID uuid.UUID

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New())
}

func (id ConnectionID) String() string {
	return uuid.UUID(id).String()
}

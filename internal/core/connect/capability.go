package connect

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// Capability is the closed set of privilege levels a connection can hold.
// The connection layer is handed an already-authenticated capability; policy
// for granting them lives outside this core.
type Capability uint8

const (
	CapabilitySpectator Capability = iota
	CapabilityOwner
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilitySpectator:
		return "spectator"
	case CapabilityOwner:
		return "owner"
	case CapabilityAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func ParseCapability(s string) (Capability, error) {
	switch s {
	case "", "spectator":
		return CapabilitySpectator, nil
	case "owner":
		return CapabilityOwner, nil
	case "admin":
		return CapabilityAdmin, nil
	default:
		return CapabilitySpectator, fmt.Errorf("unknown capability %q", s)
	}
}

// control members are only visible to whoever controls the entity
var controlMembers = map[string]struct{}{
	"accel":       {},
	"ap_scheme":   {},
	"ap_target":   {},
	"ap_distance": {},
}

// admin members can only be used by admin connections
var adminMembers = map[string]struct{}{
	"create_ship": {},
}

// Visibility is one connection's scope: its capability plus, for owners, the
// entity it controls. All checks are dispatched over the closed capability
// set; there is no open-ended policy plumbing.
type Visibility struct {
	Cap   Capability
	Owner engine.Entity
}

// CanSee reports whether the entity may be exposed to this connection at
// all. Every capability currently sees every entity; the hook exists so
// expose/subscribe consult a single place.
func (v Visibility) CanSee(e engine.Entity) bool {
	return true
}

// CanAccess reports whether the member may be read or subscribed.
func (v Visibility) CanAccess(e engine.Entity, name string) bool {
	if _, ok := adminMembers[name]; ok {
		return v.Cap == CapabilityAdmin
	}
	if _, ok := controlMembers[name]; ok {
		return v.Cap == CapabilityAdmin || (v.Cap == CapabilityOwner && v.Owner == e)
	}
	return true
}

// CanMutate reports whether the member may be written or invoked.
func (v Visibility) CanMutate(e engine.Entity, name string) bool {
	if !v.CanAccess(e, name) {
		return false
	}
	switch v.Cap {
	case CapabilityAdmin:
		return true
	case CapabilityOwner:
		return v.Owner == e
	default:
		return false
	}
}

// Transform adapts a value to this connection's representation before it is
// diffed and sent. Spectators get coarse telemetry: vector components
// rounded to whole kilometers. Two connections with different transforms
// therefore diff independently; a sub-kilometer move resends to the owner
// but not to a spectator.
func (v Visibility) Transform(name string, val engine.Value) engine.Value {
	if v.Cap != CapabilitySpectator {
		return val
	}
	return coarsen(val)
}

func coarsen(val engine.Value) engine.Value {
	switch val.Kind() {
	case engine.KindVector:
		vec, _ := val.AsVector()
		return engine.Vector(mgl64.Vec3{math.Round(vec.X()), math.Round(vec.Y()), math.Round(vec.Z())})
	case engine.KindArray:
		items := val.Items()
		out := make([]engine.Value, len(items))
		for i, item := range items {
			out[i] = coarsen(item)
		}
		return engine.Array(out...)
	default:
		return val
	}
}

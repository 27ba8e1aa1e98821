package connect

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// digestValue produces a stable 64-bit fingerprint of a translated value.
// Subscription records keep the digest of the last value sent instead of the
// value itself; comparing digests is what suppresses idempotent resends.
func digestValue(v engine.Value) uint64 {
	d := xxhash.New()
	writeValue(d, v)
	return d.Sum64()
}

func writeValue(d *xxhash.Digest, v engine.Value) {
	var buf [8]byte
	_, _ = d.Write([]byte{byte(v.Kind())})
	switch v.Kind() {
	case engine.KindNull:
	case engine.KindBool:
		b, _ := v.AsBool()
		if b {
			_, _ = d.Write([]byte{1})
		} else {
			_, _ = d.Write([]byte{0})
		}
	case engine.KindInt:
		i, _ := v.AsInt()
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		_, _ = d.Write(buf[:])
	case engine.KindFloat:
		f, _ := v.AsFloat()
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	case engine.KindText:
		s, _ := v.AsText()
		_, _ = d.WriteString(s)
	case engine.KindVector:
		vec, _ := v.AsVector()
		for _, f := range vec {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
			_, _ = d.Write(buf[:])
		}
	case engine.KindObject:
		id, _ := v.AsObject()
		binary.LittleEndian.PutUint64(buf[:], id)
		_, _ = d.Write(buf[:])
	case engine.KindEntity:
		// entities are translated to objects before digesting; fall back to
		// the printable form so an untranslated value still diffs correctly
		e, _ := v.AsEntity()
		_, _ = d.WriteString(e.String())
	case engine.KindArray:
		items := v.Items()
		binary.LittleEndian.PutUint64(buf[:], uint64(len(items)))
		_, _ = d.Write(buf[:])
		for _, item := range items {
			writeValue(d, item)
		}
	}
}

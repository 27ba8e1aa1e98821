package connect

import (
	"errors"
	"fmt"

	"github.com/orbitsync/orbitsync/internal/core/engine"
	"github.com/orbitsync/orbitsync/internal/core/observability/log"
	"github.com/orbitsync/orbitsync/pkg/sequence"
)

type subKey struct {
	object ObjectID
	member string
}

// subscription is the per-(connection, property) record: liveness plus the
// digest of the last value sent, for idempotent resend suppression.
type subscription struct {
	entity     engine.Entity
	lastDigest uint64
	sent       bool
}

// Connection is everything the collection tracks for one client: its scope,
// its entity-to-object mapping, its live subscriptions and the outbound
// batch accumulating during the current tick.
type Connection struct {
	id      engine.ConnectionID
	vis     Visibility
	session Session
	objects *ObjectMap
	subs    map[subKey]*subscription
	watched map[engine.Entity]*destructionWatch
	batch   []Outbound
}

// Collection implements engine.ConnectionLayer: it owns all connections,
// the inbound intent queue and outbound batching. Everything except Enqueue
// runs on the tick goroutine.
type Collection struct {
	logger    log.Log
	root      engine.Entity
	queue     *sequence.FIFO[Intent]
	conns     map[engine.ConnectionID]*Connection
	drainBuf  []Intent
	ownerJoin func(s *engine.State) (engine.Entity, error)
}

var _ engine.ConnectionLayer = (*Collection)(nil)

func NewCollection(logger log.Log) *Collection {
	return &Collection{
		logger: logger,
		queue:  sequence.NewFIFO[Intent](),
		conns:  make(map[engine.ConnectionID]*Connection),
	}
}

// SetRoot names the entity every new connection gets exposed first, so the
// root is always object 1 from the client's point of view.
func (c *Collection) SetRoot(root engine.Entity) {
	c.root = root
}

// SetOwnerFactory installs the callback that provisions an entity for owner
// connections that arrive without one. Typically a ship spawner.
func (c *Collection) SetOwnerFactory(fn func(s *engine.State) (engine.Entity, error)) {
	c.ownerJoin = fn
}

// Enqueue adds a client intent for the next tick. Safe from any goroutine.
func (c *Collection) Enqueue(i Intent) {
	c.queue.Enqueue(i)
}

// ProcessInbound drains and applies queued intents in arrival order.
func (c *Collection) ProcessInbound(s *engine.State) {
	c.drainBuf = c.queue.Drain(c.drainBuf)
	for _, intent := range c.drainBuf {
		intent.apply(s, c)
	}
}

// FlushOutbound hands each connection's batch to its session. A failed send
// means the session is dead; the connection is scheduled for teardown.
func (c *Collection) FlushOutbound(s *engine.State) {
	for id, conn := range c.conns {
		if len(conn.batch) == 0 {
			continue
		}
		batch := conn.batch
		conn.batch = nil
		if err := conn.session.Send(batch); err != nil {
			c.logger.Warn("send failed, closing connection",
				log.Stringer("connection", id),
				log.Error(err),
			)
			c.Enqueue(ConnectionClosed{Conn: id})
		}
	}
}

// ConnectionCount reports how many connections are currently registered.
func (c *Collection) ConnectionCount() int {
	return len(c.conns)
}

func (c *Collection) connection(id engine.ConnectionID) (*Connection, bool) {
	conn, ok := c.conns[id]
	return conn, ok
}

// fail reports a request failure back to the requesting connection only and
// logs it. Protocol misuse and stale targets both land here; neither affects
// other connections or the simulation.
func (conn *Connection) fail(c *Collection, request string, object ObjectID, member string, err error) {
	conn.batch = append(conn.batch, RequestError{
		Request: request,
		Object:  object,
		Member:  member,
		Message: err.Error(),
	})
	c.logger.Debug("request failed",
		log.Stringer("connection", conn.id),
		log.String("request", request),
		log.Uint64("object", uint64(object)),
		log.String("member", member),
		log.Error(err),
	)
}

// expose allocates (or returns) the connection-local ID for an entity and
// registers a destruction watch so the connection gets exactly one
// ObjectRemoved when the entity dies.
func (conn *Connection) expose(s *engine.State, c *Collection, e engine.Entity) (ObjectID, error) {
	if id, ok := conn.objects.Object(e); ok {
		return id, nil
	}
	if !s.Alive(e) {
		return 0, fmt.Errorf("%w: cannot expose %s", engine.ErrGone, e)
	}
	if !conn.vis.CanSee(e) {
		return 0, engine.ErrNotVisible
	}
	id, err := conn.objects.Register(e)
	if err != nil {
		return 0, err
	}
	destroyed, err := s.Destroyed(e)
	if err != nil {
		return 0, err
	}
	watch := &destructionWatch{col: c, conn: conn, entity: e}
	if err := destroyed.Subscribe(watch); err != nil {
		return 0, err
	}
	conn.watched[e] = watch
	return id, nil
}

// resolve maps a client-supplied object ID back to an entity.
func (conn *Connection) resolve(object ObjectID) (engine.Entity, error) {
	e, ok := conn.objects.Entity(object)
	if !ok {
		return engine.Entity{}, fmt.Errorf("%w: unknown object %d", engine.ErrGone, object)
	}
	return e, nil
}

// translateIn replaces client-side object references in an incoming value
// with entity references.
func (conn *Connection) translateIn(v engine.Value) (engine.Value, error) {
	switch v.Kind() {
	case engine.KindObject:
		id, _ := v.AsObject()
		e, err := conn.resolve(ObjectID(id))
		if err != nil {
			return engine.Null(), err
		}
		return engine.EntityRef(e), nil
	case engine.KindArray:
		items := v.Items()
		out := make([]engine.Value, len(items))
		for i, item := range items {
			translated, err := conn.translateIn(item)
			if err != nil {
				return engine.Null(), err
			}
			out[i] = translated
		}
		return engine.Array(out...), nil
	default:
		return v, nil
	}
}

// translateOut replaces entity references in an outgoing value with
// connection-local object IDs, exposing entities the connection has not seen
// yet. References the connection may not see become null.
func (conn *Connection) translateOut(s *engine.State, c *Collection, v engine.Value) engine.Value {
	switch v.Kind() {
	case engine.KindEntity:
		e, _ := v.AsEntity()
		if e.IsZero() {
			return engine.Null()
		}
		id, err := conn.expose(s, c, e)
		if err != nil {
			return engine.Null()
		}
		return engine.ObjectRef(uint64(id))
	case engine.KindArray:
		items := v.Items()
		out := make([]engine.Value, len(items))
		for i, item := range items {
			out[i] = conn.translateOut(s, c, item)
		}
		return engine.Array(out...)
	default:
		return v
	}
}

// dropObject removes every record the connection holds for an object.
func (conn *Connection) dropObject(e engine.Entity, id ObjectID) {
	for key := range conn.subs {
		if key.object == id {
			delete(conn.subs, key)
		}
	}
	delete(conn.watched, e)
}

// destructionWatch subscribes to one entity's destroyed signal on behalf of
// one connection. Fires during the flush phase of the tick that destroyed
// the entity.
type destructionWatch struct {
	col    *Collection
	conn   *Connection
	entity engine.Entity
}

func (w *destructionWatch) Notify(s *engine.State, sink engine.EventSink) error {
	id, ok := w.conn.objects.Remove(w.entity)
	if !ok {
		return nil
	}
	w.conn.dropObject(w.entity, id)
	w.conn.batch = append(w.conn.batch, ObjectRemoved{Object: id})
	return nil
}

// --- intent application -------------------------------------------------

func (i ConnectionOpened) apply(s *engine.State, c *Collection) {
	if _, ok := c.conns[i.Conn]; ok {
		c.logger.Error("duplicate connection id", log.Stringer("connection", i.Conn))
		return
	}
	conn := &Connection{
		id:      i.Conn,
		vis:     i.Vis,
		session: i.Session,
		objects: NewObjectMap(),
		subs:    make(map[subKey]*subscription),
		watched: make(map[engine.Entity]*destructionWatch),
	}
	if conn.vis.Cap == CapabilityOwner && conn.vis.Owner.IsZero() && c.ownerJoin != nil {
		owned, err := c.ownerJoin(s)
		if err != nil {
			c.logger.Error("owner provisioning failed",
				log.Stringer("connection", i.Conn),
				log.Error(err),
			)
		} else {
			conn.vis.Owner = owned
		}
	}
	c.conns[i.Conn] = conn
	if !c.root.IsZero() {
		if _, err := conn.expose(s, c, c.root); err != nil {
			c.logger.Error("failed to expose root",
				log.Stringer("connection", i.Conn),
				log.Error(err),
			)
		}
	}
	c.logger.Info("connection opened",
		log.Stringer("connection", i.Conn),
		log.Stringer("capability", i.Vis.Cap),
	)
}

func (i ConnectionClosed) apply(s *engine.State, c *Collection) {
	conn, ok := c.conns[i.Conn]
	if !ok {
		return
	}
	for key := range conn.subs {
		e, err := conn.resolve(key.object)
		if err != nil {
			continue
		}
		member, err := s.Member(e, key.member)
		if err != nil {
			continue // entity died with the subscription, nothing to drop
		}
		if err := member.Unsubscribe(s, conn.id); err != nil {
			c.logger.Warn("teardown unsubscribe failed",
				log.Stringer("connection", conn.id),
				log.String("member", key.member),
				log.Error(err),
			)
		}
	}
	for e, watch := range conn.watched {
		if destroyed, err := s.Destroyed(e); err == nil {
			_ = destroyed.Unsubscribe(watch)
		}
	}
	delete(c.conns, i.Conn)
	conn.session.Close()
	c.logger.Info("connection closed", log.Stringer("connection", i.Conn))
}

func (i SetProperty) apply(s *engine.State, c *Collection) {
	conn, ok := c.connection(i.Conn)
	if !ok {
		return
	}
	e, err := conn.resolve(i.Object)
	if err != nil {
		conn.fail(c, "set", i.Object, i.Property, err)
		return
	}
	if !conn.vis.CanMutate(e, i.Property) {
		conn.fail(c, "set", i.Object, i.Property, engine.ErrNotVisible)
		return
	}
	member, err := s.Member(e, i.Property)
	if err != nil {
		conn.fail(c, "set", i.Object, i.Property, err)
		return
	}
	value, err := conn.translateIn(i.Value)
	if err != nil {
		conn.fail(c, "set", i.Object, i.Property, err)
		return
	}
	if err := member.Set(s, value); err != nil {
		conn.fail(c, "set", i.Object, i.Property, err)
	}
}

func (i GetProperty) apply(s *engine.State, c *Collection) {
	conn, ok := c.connection(i.Conn)
	if !ok {
		return
	}
	e, err := conn.resolve(i.Object)
	if err != nil {
		conn.fail(c, "get", i.Object, i.Property, err)
		return
	}
	if !conn.vis.CanAccess(e, i.Property) {
		conn.fail(c, "get", i.Object, i.Property, engine.ErrNotVisible)
		return
	}
	member, err := s.Member(e, i.Property)
	if err != nil {
		conn.fail(c, "get", i.Object, i.Property, err)
		return
	}
	value, err := member.Get(s)
	if err != nil {
		conn.fail(c, "get", i.Object, i.Property, err)
		return
	}
	value = conn.vis.Transform(i.Property, value)
	conn.batch = append(conn.batch, ValueReply{
		Object:   i.Object,
		Property: i.Property,
		Value:    conn.translateOut(s, c, value),
	})
}

func (i InvokeAction) apply(s *engine.State, c *Collection) {
	conn, ok := c.connection(i.Conn)
	if !ok {
		return
	}
	e, err := conn.resolve(i.Object)
	if err != nil {
		conn.fail(c, "invoke", i.Object, i.Action, err)
		return
	}
	if !conn.vis.CanMutate(e, i.Action) {
		conn.fail(c, "invoke", i.Object, i.Action, engine.ErrNotVisible)
		return
	}
	member, err := s.Member(e, i.Action)
	if err != nil {
		conn.fail(c, "invoke", i.Object, i.Action, err)
		return
	}
	args, err := conn.translateIn(i.Args)
	if err != nil {
		conn.fail(c, "invoke", i.Object, i.Action, err)
		return
	}
	if err := member.Invoke(s, args); err != nil {
		conn.fail(c, "invoke", i.Object, i.Action, err)
	}
}

func (i Subscribe) apply(s *engine.State, c *Collection) {
	conn, ok := c.connection(i.Conn)
	if !ok {
		return
	}
	e, err := conn.resolve(i.Object)
	if err != nil {
		conn.fail(c, "subscribe", i.Object, i.Member, err)
		return
	}
	if !conn.vis.CanAccess(e, i.Member) {
		conn.fail(c, "subscribe", i.Object, i.Member, engine.ErrNotVisible)
		return
	}
	member, err := s.Member(e, i.Member)
	if err != nil {
		conn.fail(c, "subscribe", i.Object, i.Member, err)
		return
	}
	if err := member.Subscribe(s, conn.id); err != nil {
		conn.fail(c, "subscribe", i.Object, i.Member, err)
		return
	}
	conn.subs[subKey{object: i.Object, member: i.Member}] = &subscription{entity: e}
}

func (i Unsubscribe) apply(s *engine.State, c *Collection) {
	conn, ok := c.connection(i.Conn)
	if !ok {
		return
	}
	key := subKey{object: i.Object, member: i.Member}
	if _, ok := conn.subs[key]; !ok {
		conn.fail(c, "unsubscribe", i.Object, i.Member, engine.ErrNotSubscribed)
		return
	}
	delete(conn.subs, key)
	e, err := conn.resolve(i.Object)
	if err != nil {
		return
	}
	member, err := s.Member(e, i.Member)
	if err != nil {
		return
	}
	if err := member.Unsubscribe(s, conn.id); err != nil && !errors.Is(err, engine.ErrNotSubscribed) {
		c.logger.Warn("unsubscribe failed",
			log.Stringer("connection", conn.id),
			log.String("member", i.Member),
			log.Error(err),
		)
	}
}

// --- engine.EventSink ---------------------------------------------------

// PropertyChanged queues an update for one connection, suppressing it when
// the transformed, translated value matches what that connection last got.
func (c *Collection) PropertyChanged(s *engine.State, connID engine.ConnectionID, entity engine.Entity, name string, value engine.Value) error {
	conn, ok := c.connection(connID)
	if !ok {
		return nil
	}
	id, ok := conn.objects.Object(entity)
	if !ok {
		return nil
	}
	sub, ok := conn.subs[subKey{object: id, member: name}]
	if !ok {
		return nil
	}
	v := conn.vis.Transform(name, value)
	v = conn.translateOut(s, c, v)
	digest := digestValue(v)
	if sub.sent && digest == sub.lastDigest {
		return nil
	}
	sub.lastDigest = digest
	sub.sent = true
	conn.batch = append(conn.batch, PropertyUpdate{Object: id, Property: name, Value: v})
	return nil
}

// SignalFired queues one signal event. Never deduplicated.
func (c *Collection) SignalFired(s *engine.State, connID engine.ConnectionID, entity engine.Entity, name string, payload engine.Value) error {
	conn, ok := c.connection(connID)
	if !ok {
		return nil
	}
	id, ok := conn.objects.Object(entity)
	if !ok {
		return nil
	}
	if _, ok := conn.subs[subKey{object: id, member: name}]; !ok {
		return nil
	}
	v := conn.vis.Transform(name, payload)
	conn.batch = append(conn.batch, SignalEvent{Object: id, Signal: name, Value: conn.translateOut(s, c, v)})
	return nil
}

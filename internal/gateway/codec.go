package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/orbitsync/orbitsync/internal/core/connect"
	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// Wire format: JSON text frames. Requests are single objects discriminated
// by mtype; each tick's outbound batch is one array frame so clients observe
// ticks atomically.

type request struct {
	MType    string          `json:"mtype"`
	Object   uint64          `json:"object"`
	Property string          `json:"property"`
	Value    json.RawMessage `json:"value,omitempty"`
}

type update struct {
	MType    string `json:"mtype"`
	Object   uint64 `json:"object"`
	Property string `json:"property,omitempty"`
	Signal   string `json:"signal,omitempty"`
	Value    any    `json:"value,omitempty"`
	Request  string `json:"request,omitempty"`
	Member   string `json:"member,omitempty"`
	Message  string `json:"message,omitempty"`
}

func decodeRequest(conn engine.ConnectionID, data []byte) (connect.Intent, error) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("malformed request: %w", err)
	}
	object := connect.ObjectID(req.Object)
	switch req.MType {
	case "set":
		value, err := decodeValue(req.Value)
		if err != nil {
			return nil, err
		}
		return connect.SetProperty{Conn: conn, Object: object, Property: req.Property, Value: value}, nil
	case "get":
		return connect.GetProperty{Conn: conn, Object: object, Property: req.Property}, nil
	case "invoke":
		args, err := decodeValue(req.Value)
		if err != nil {
			return nil, err
		}
		return connect.InvokeAction{Conn: conn, Object: object, Action: req.Property, Args: args}, nil
	case "subscribe":
		return connect.Subscribe{Conn: conn, Object: object, Member: req.Property}, nil
	case "unsubscribe":
		return connect.Unsubscribe{Conn: conn, Object: object, Member: req.Property}, nil
	default:
		return nil, fmt.Errorf("unknown request type %q", req.MType)
	}
}

// decodeValue maps JSON into the engine's value union. A three-number array
// is a vector; any other array stays an array. Object references arrive as
// {"object": id}.
func decodeValue(raw json.RawMessage) (engine.Value, error) {
	if len(raw) == 0 {
		return engine.Null(), nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return engine.Null(), fmt.Errorf("malformed value: %w", err)
	}
	return fromJSON(v)
}

func fromJSON(v any) (engine.Value, error) {
	switch t := v.(type) {
	case nil:
		return engine.Null(), nil
	case bool:
		return engine.Bool(t), nil
	case float64:
		return engine.Float(t), nil
	case string:
		return engine.Text(t), nil
	case []any:
		if vec, ok := asVector(t); ok {
			return vec, nil
		}
		items := make([]engine.Value, len(t))
		for i, item := range t {
			decoded, err := fromJSON(item)
			if err != nil {
				return engine.Null(), err
			}
			items[i] = decoded
		}
		return engine.Array(items...), nil
	case map[string]any:
		id, ok := t["object"].(float64)
		if !ok || len(t) != 1 {
			return engine.Null(), fmt.Errorf("unsupported value object %v", t)
		}
		return engine.ObjectRef(uint64(id)), nil
	default:
		return engine.Null(), fmt.Errorf("unsupported value type %T", v)
	}
}

func asVector(items []any) (engine.Value, bool) {
	if len(items) != 3 {
		return engine.Null(), false
	}
	var vec [3]float64
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return engine.Null(), false
		}
		vec[i] = f
	}
	return engine.Vector(vec), true
}

func encodeBatch(batch []connect.Outbound) ([]byte, error) {
	frames := make([]update, 0, len(batch))
	for _, out := range batch {
		switch m := out.(type) {
		case connect.PropertyUpdate:
			frames = append(frames, update{MType: "update", Object: uint64(m.Object), Property: m.Property, Value: toJSON(m.Value)})
		case connect.ValueReply:
			frames = append(frames, update{MType: "value", Object: uint64(m.Object), Property: m.Property, Value: toJSON(m.Value)})
		case connect.SignalEvent:
			frames = append(frames, update{MType: "event", Object: uint64(m.Object), Signal: m.Signal, Value: toJSON(m.Value)})
		case connect.ObjectRemoved:
			frames = append(frames, update{MType: "destroyed", Object: uint64(m.Object)})
		case connect.RequestError:
			frames = append(frames, update{MType: "error", Object: uint64(m.Object), Request: m.Request, Member: m.Member, Message: m.Message})
		default:
			return nil, fmt.Errorf("unknown outbound message %T", out)
		}
	}
	return json.Marshal(frames)
}

func toJSON(v engine.Value) any {
	switch v.Kind() {
	case engine.KindNull:
		return nil
	case engine.KindBool:
		b, _ := v.AsBool()
		return b
	case engine.KindInt:
		i, _ := v.AsInt()
		return i
	case engine.KindFloat:
		f, _ := v.AsFloat()
		return f
	case engine.KindText:
		s, _ := v.AsText()
		return s
	case engine.KindVector:
		vec, _ := v.AsVector()
		return []float64{vec.X(), vec.Y(), vec.Z()}
	case engine.KindObject:
		id, _ := v.AsObject()
		return map[string]uint64{"object": id}
	case engine.KindArray:
		items := v.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toJSON(item)
		}
		return out
	default:
		// raw entity references never cross the wire; translation happens
		// in the connection layer
		return nil
	}
}

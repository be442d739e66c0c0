package value

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseJSON decodes a single JSON text value into a Value, preserving
// object key order via json.Decoder's token stream rather than
// json.Unmarshal into a bare map (which discards it). This backs
// CAST(... AS MAP)/CAST(... AS LIST) and the schemaless INSERT convention
// of a single JSON-object literal becoming a row's document.
//
// No library in the retrieval pack offers an order-preserving JSON
// decoder directly into github.com/wk8/go-ordered-map/v2 (its own
// UnmarshalJSON support requires a concrete value type, not the engine's
// Value union), so this is a deliberate, narrow stdlib fallback: the
// decoding itself, not the ordered-map storage, is what's hand-rolled.
func ParseJSON(s string) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("invalid JSON literal: %w", err)
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return jsonValueFromToken(dec, tok)
}

func jsonValueFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected string object key, got %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return MapVal(m), nil
		case '[':
			var list []Value
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return List(list), nil
		default:
			return Value{}, fmt.Errorf("unexpected JSON delimiter %v", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return I64(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return F64(f), nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON token %T", tok)
	}
}

// MarshalJSON renders v back to JSON text, used by output formatting for
// Map/List columns (e.g. SHOW or a SelectMap payload serialized by an
// embedding surface).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindNull:
		return []byte("null"), nil
	case KindMap:
		var buf bytes.Buffer
		buf.WriteByte('{')
		m := v.MapOf()
		first := true
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			keyBytes, err := json.Marshal(pair.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := pair.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.ListOf() {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindBool:
		return json.Marshal(v.Bool())
	case KindText:
		return json.Marshal(v.TextOf())
	default:
		return json.Marshal(v.String())
	}
}

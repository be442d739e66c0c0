package mysqlstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"emberql/storage"
	"emberql/value"
)

// Row and index payloads are stored as opaque VARBINARY/BLOB columns in the
// physical MySQL tables (see store.go's DDL); this file is the binary codec
// between a value.Value/storage.Row and those bytes.
//
// Every Key-eligible Kind is encoded by delegating to value.Key's own
// byte-order-preserving codec, the same one the engine already uses for row
// identifiers and index entries — there is no reason to reinvent a second
// encoding for the Kinds that codec already covers exactly. Only the
// non-Key Kinds (floats, Map, List, Point) need payload-only framing here,
// since they are never compared byte-wise, only stored and reloaded.
type valueTag byte

const (
	tagKeyable valueTag = iota // payload is a value.Key encoding
	tagF32
	tagF64
	tagMap
	tagList
	tagPoint
)

func encodeValue(buf *bytes.Buffer, v value.Value) error {
	switch v.Kind() {
	case value.KindF32:
		buf.WriteByte(byte(tagF32))
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v.Float32Of()))
		buf.Write(tmp[:])
		return nil
	case value.KindF64:
		buf.WriteByte(byte(tagF64))
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v.Float64Of()))
		buf.Write(tmp[:])
		return nil
	case value.KindMap:
		buf.WriteByte(byte(tagMap))
		m := v.MapOf()
		writeUint32(buf, uint32(m.Len()))
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			writeBytes(buf, []byte(pair.Key))
			if err := encodeValue(buf, pair.Value); err != nil {
				return err
			}
		}
		return nil
	case value.KindList:
		buf.WriteByte(byte(tagList))
		list := v.ListOf()
		writeUint32(buf, uint32(len(list)))
		for _, e := range list {
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		return nil
	case value.KindPoint:
		buf.WriteByte(byte(tagPoint))
		p := v.PointOf()
		var tmp [16]byte
		binary.BigEndian.PutUint64(tmp[:8], math.Float64bits(p.X))
		binary.BigEndian.PutUint64(tmp[8:], math.Float64bits(p.Y))
		buf.Write(tmp[:])
		return nil
	default:
		k, err := value.NewKey(v)
		if err != nil {
			return fmt.Errorf("mysqlstore: encoding value of kind %s: %w", v.Kind(), err)
		}
		buf.WriteByte(byte(tagKeyable))
		writeBytes(buf, k.Encode())
		return nil
	}
}

func decodeValue(b []byte) (value.Value, []byte, error) {
	if len(b) == 0 {
		return value.Value{}, nil, fmt.Errorf("mysqlstore: empty value encoding")
	}
	tag := valueTag(b[0])
	rest := b[1:]
	switch tag {
	case tagKeyable:
		payload, rem, err := readBytes(rest)
		if err != nil {
			return value.Value{}, nil, err
		}
		k, err := value.Decode(payload)
		if err != nil {
			return value.Value{}, nil, err
		}
		if k.IsNone() {
			return value.Null(), rem, nil
		}
		return k.Value(), rem, nil
	case tagF32:
		if len(rest) < 4 {
			return value.Value{}, nil, fmt.Errorf("mysqlstore: truncated f32")
		}
		bits := binary.BigEndian.Uint32(rest[:4])
		return value.F32(math.Float32frombits(bits)), rest[4:], nil
	case tagF64:
		if len(rest) < 8 {
			return value.Value{}, nil, fmt.Errorf("mysqlstore: truncated f64")
		}
		bits := binary.BigEndian.Uint64(rest[:8])
		return value.F64(math.Float64frombits(bits)), rest[8:], nil
	case tagMap:
		n, rem, err := readUint32(rest)
		if err != nil {
			return value.Value{}, nil, err
		}
		m := value.NewMap()
		for i := uint32(0); i < n; i++ {
			var keyBytes []byte
			keyBytes, rem, err = readBytes(rem)
			if err != nil {
				return value.Value{}, nil, err
			}
			var val value.Value
			val, rem, err = decodeValue(rem)
			if err != nil {
				return value.Value{}, nil, err
			}
			m.Set(string(keyBytes), val)
		}
		return value.MapVal(m), rem, nil
	case tagList:
		n, rem, err := readUint32(rest)
		if err != nil {
			return value.Value{}, nil, err
		}
		list := make([]value.Value, 0, n)
		for i := uint32(0); i < n; i++ {
			var val value.Value
			val, rem, err = decodeValue(rem)
			if err != nil {
				return value.Value{}, nil, err
			}
			list = append(list, val)
		}
		return value.List(list), rem, nil
	case tagPoint:
		if len(rest) < 16 {
			return value.Value{}, nil, fmt.Errorf("mysqlstore: truncated point")
		}
		x := math.Float64frombits(binary.BigEndian.Uint64(rest[:8]))
		y := math.Float64frombits(binary.BigEndian.Uint64(rest[8:16]))
		return value.PointVal(value.Point{X: x, Y: y}), rest[16:], nil
	default:
		return value.Value{}, nil, fmt.Errorf("mysqlstore: unknown value tag %d", tag)
	}
}

func writeUint32(buf *bytes.Buffer, n uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], n)
	buf.Write(tmp[:])
}

func readUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("mysqlstore: truncated length")
	}
	return binary.BigEndian.Uint32(b[:4]), b[4:], nil
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func readBytes(b []byte) ([]byte, []byte, error) {
	n, rest, err := readUint32(b)
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(rest)) < n {
		return nil, nil, fmt.Errorf("mysqlstore: truncated payload")
	}
	return rest[:n], rest[n:], nil
}

// encodeRow renders a storage.Row (structured or schemaless) as bytes for
// the row_bytes BLOB column.
func encodeRow(r storage.Row) ([]byte, error) {
	var buf bytes.Buffer
	if r.Schemaless() {
		buf.WriteByte(1)
		if err := encodeValue(&buf, value.MapVal(r.Doc)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	buf.WriteByte(0)
	writeUint32(&buf, uint32(len(r.Values)))
	for _, v := range r.Values {
		if err := encodeValue(&buf, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeRow(b []byte) (storage.Row, error) {
	if len(b) == 0 {
		return storage.Row{}, fmt.Errorf("mysqlstore: empty row encoding")
	}
	schemaless := b[0] == 1
	rest := b[1:]
	if schemaless {
		v, rem, err := decodeValue(rest)
		if err != nil {
			return storage.Row{}, err
		}
		if len(rem) != 0 {
			return storage.Row{}, fmt.Errorf("mysqlstore: trailing bytes after schemaless row")
		}
		return storage.Row{Doc: v.MapOf()}, nil
	}
	n, rem, err := readUint32(rest)
	if err != nil {
		return storage.Row{}, err
	}
	values := make([]value.Value, 0, n)
	for i := uint32(0); i < n; i++ {
		var v value.Value
		v, rem, err = decodeValue(rem)
		if err != nil {
			return storage.Row{}, err
		}
		values = append(values, v)
	}
	if len(rem) != 0 {
		return storage.Row{}, fmt.Errorf("mysqlstore: trailing bytes after structured row")
	}
	return storage.Row{Values: values}, nil
}

package persistence

import (
	"bytes"
	"encoding/gob"

	"github.com/petrijr/benchseed/pkg/api"
)

// EncodeValue serializes v using encoding/gob.
// Callers must ensure that values are gob-encodable.
func EncodeValue[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeValue decodes a payload produced by EncodeValue. An empty payload
// yields the zero value.
func DecodeValue[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

// cursorPayload is the stored form of a Cursor in key/value backends.
type cursorPayload struct {
	RunID     string
	Scenario  string
	Request   api.Config
	Calls     int
	Complete  bool
	UpdatedAt int64
}

func encodeCursor(c *Cursor) ([]byte, error) {
	return EncodeValue(cursorPayload{
		RunID:     c.RunID,
		Scenario:  c.Scenario,
		Request:   c.Request,
		Calls:     c.Calls,
		Complete:  c.Complete,
		UpdatedAt: c.UpdatedAt.UnixNano(),
	})
}

func decodeCursor(data []byte) (*Cursor, error) {
	p, err := DecodeValue[cursorPayload](data)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		RunID:     p.RunID,
		Scenario:  p.Scenario,
		Request:   p.Request,
		Calls:     p.Calls,
		Complete:  p.Complete,
		UpdatedAt: unixNano(p.UpdatedAt),
	}, nil
}

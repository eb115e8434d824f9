package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// checkpointDone is the wire form of a completed checkpoint.
const checkpointDone = "done"

// Checkpoint is the opaque resume state a caller echoes back between calls.
//
// On the wire it is either a positive integer (the next 1-based item index
// to process) or the string "done". The zero value means "no checkpoint".
type Checkpoint struct {
	offset int
	done   bool
}

// CheckpointDone marks an operation as already finished.
var CheckpointDone = Checkpoint{done: true}

// At returns a checkpoint resuming at the given 1-based offset.
// Offsets below 1 yield the zero checkpoint.
func At(offset int) Checkpoint {
	if offset < 1 {
		return Checkpoint{}
	}
	return Checkpoint{offset: offset}
}

// ParseCheckpoint parses the wire form produced by String.
func ParseCheckpoint(s string) (Checkpoint, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "0", "null", "~":
		return Checkpoint{}, nil
	case checkpointDone:
		return CheckpointDone, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Checkpoint{}, fmt.Errorf("invalid checkpoint %q", s)
	}
	return At(n), nil
}

// IsZero reports whether no checkpoint is set.
func (c Checkpoint) IsZero() bool {
	return c.offset == 0 && !c.done
}

// IsDone reports whether the checkpoint is the "done" sentinel.
func (c Checkpoint) IsDone() bool {
	return c.done
}

// Offset returns the resume offset, or 0 when none is set.
func (c Checkpoint) Offset() int {
	return c.offset
}

func (c Checkpoint) String() string {
	switch {
	case c.done:
		return checkpointDone
	case c.offset > 0:
		return strconv.Itoa(c.offset)
	}
	return ""
}

func (c Checkpoint) MarshalJSON() ([]byte, error) {
	switch {
	case c.done:
		return json.Marshal(checkpointDone)
	case c.offset > 0:
		return json.Marshal(c.offset)
	}
	return []byte("null"), nil
}

func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*c = Checkpoint{}
		return nil
	case float64:
		if v < 0 || v != float64(int(v)) {
			return fmt.Errorf("invalid checkpoint %v", v)
		}
		*c = At(int(v))
		return nil
	case string:
		parsed, err := ParseCheckpoint(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	return fmt.Errorf("invalid checkpoint type %T", raw)
}

func (c Checkpoint) MarshalYAML() (any, error) {
	switch {
	case c.done:
		return checkpointDone, nil
	case c.offset > 0:
		return c.offset, nil
	}
	return nil, nil
}

func (c *Checkpoint) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid checkpoint at line %d", node.Line)
	}
	parsed, err := ParseCheckpoint(node.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Checkpoint) GobEncode() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Checkpoint) GobDecode(data []byte) error {
	parsed, err := ParseCheckpoint(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

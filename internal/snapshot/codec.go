package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	"github.com/smallbiznis/snelcrm/internal/snapshot/domain"
)

const (
	envelopeVersion = 1

	EncodingJSON   = "json"
	EncodingSnappy = "snappy"
)

// Codec wraps collection documents in a versioned envelope. Envelopes are
// always valid JSON so every backend can store them as-is.
type Codec struct {
	compress bool
}

type envelope struct {
	Version  int             `json:"version"`
	Encoding string          `json:"encoding"`
	Data     json.RawMessage `json:"data"`
}

func NewCodec(compression string) Codec {
	return Codec{compress: compression == EncodingSnappy}
}

func (c Codec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	env := envelope{Version: envelopeVersion, Encoding: EncodingJSON, Data: raw}
	if c.compress {
		packed, err := json.Marshal(snappy.Encode(nil, raw))
		if err != nil {
			return nil, err
		}
		env.Encoding = EncodingSnappy
		env.Data = packed
	}
	return json.Marshal(env)
}

// Decode reads either encoding regardless of how the codec is configured, so
// switching compression on or off does not strand existing snapshots.
func (c Codec) Decode(data []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return fmt.Errorf("%w: %d", domain.ErrUnknownVersion, env.Version)
	}

	switch env.Encoding {
	case EncodingJSON, "":
		return json.Unmarshal(env.Data, v)
	case EncodingSnappy:
		var packed []byte
		if err := json.Unmarshal(env.Data, &packed); err != nil {
			return fmt.Errorf("decode snappy payload: %w", err)
		}
		raw, err := snappy.Decode(nil, packed)
		if err != nil {
			return fmt.Errorf("decode snappy payload: %w", err)
		}
		return json.Unmarshal(raw, v)
	default:
		return fmt.Errorf("unknown snapshot encoding %q", env.Encoding)
	}
}

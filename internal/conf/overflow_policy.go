package conf

import (
	"encoding/json"

	"github.com/bluenviron/avplay/internal/framecache"
)

// OverflowPolicy is the overflow parameter of a recorder.
type OverflowPolicy framecache.OverflowPolicy

// MarshalJSON implements json.Marshaler.
func (p OverflowPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(framecache.OverflowPolicy(p).String())
}

func (p *OverflowPolicy) parse(in string) error {
	v, err := framecache.ParseOverflowPolicy(in)
	if err != nil {
		return err
	}
	*p = OverflowPolicy(v)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *OverflowPolicy) UnmarshalJSON(b []byte) error {
	var in string
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	return p.parse(in)
}

// UnmarshalEnv implements env.Unmarshaler.
func (p *OverflowPolicy) UnmarshalEnv(_ string, v string) error {
	return p.parse(v)
}

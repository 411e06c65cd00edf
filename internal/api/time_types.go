package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Timestamp accepts an RFC 3339 string or epoch milliseconds (as a number
// or a numeric string) and always marshals to RFC 3339 in UTC. Billing
// systems that set plan dates send either form.
type Timestamp struct {
	time.Time
}

// Schema implements huma.SchemaProvider so both encodings pass request validation.
func (Timestamp) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "RFC 3339 time or epoch milliseconds",
		OneOf: []*huma.Schema{
			{Type: huma.TypeString},
			{Type: huma.TypeNumber},
		},
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t, err := parseTimestamp(s)
		if err != nil {
			return err
		}
		ts.Time = t
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("cannot unmarshal %s into Timestamp", data)
	}
	ts.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

// Ptr returns the time as a pointer, or nil when ts is nil.
func (ts *Timestamp) Ptr() *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.UTC()
	return &t
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time string: %s", s)
}

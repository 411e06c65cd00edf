package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"rfc3339", `"2024-01-15T10:30:00Z"`},
		{"rfc3339 with offset", `"2024-01-15T12:30:00+02:00"`},
		{"epoch ms number", `1705314600000`},
		{"epoch ms string", `"1705314600000"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, want.Equal(ts.Time), "got %s", ts.Time)
		})
	}
}

func TestTimestamp_UnmarshalJSON_Invalid(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`true`), &ts))
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	ts := Timestamp{Time: time.Date(2024, 1, 15, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))}
	data, err := json.Marshal(ts)
	require.NoError(t, err)

	assert.Equal(t, `"2024-01-15T10:30:00Z"`, string(data))
}

func TestTimestamp_InStruct(t *testing.T) {
	var body struct {
		Start *Timestamp `json:"start"`
		End   *Timestamp `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-15T10:30:00Z"}`), &body))

	require.NotNil(t, body.Start.Ptr())
	assert.Equal(t, 2024, body.Start.Ptr().Year())
	assert.Nil(t, body.End.Ptr())
}

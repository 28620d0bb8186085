package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBackoffDoublesToCap(t *testing.T) {
	d := nextBackoff(0)
	assert.Equal(t, minFetchBackoff, d)
	assert.Equal(t, 2*minFetchBackoff, nextBackoff(d))
	assert.Equal(t, maxFetchBackoff, nextBackoff(maxFetchBackoff))
	assert.Equal(t, maxFetchBackoff, nextBackoff(20*time.Second))
}

func TestEncodeSetsKeyAndTypeHeader(t *testing.T) {
	msg, err := encode(Event{Key: "/idx/a.idx", Type: "index.complete", Value: map[string]int{"words": 3}})
	require.NoError(t, err)
	assert.Equal(t, []byte("/idx/a.idx"), msg.Key)
	assert.JSONEq(t, `{"words":3}`, string(msg.Value))
	assert.Equal(t, "index.complete", eventType(msg))

	msg, err = encode(Event{Key: "k", Value: 1})
	require.NoError(t, err)
	assert.Empty(t, msg.Headers)
	assert.Equal(t, "", eventType(msg))
}

func TestEncodeRejectsUnencodableValue(t *testing.T) {
	_, err := encode(Event{Key: "k", Value: make(chan int)})
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Path string `json:"path"`
	}
	v, err := DecodeJSON[payload]([]byte(`{"path":"/idx/a.idx"}`))
	require.NoError(t, err)
	assert.Equal(t, "/idx/a.idx", v.Path)

	_, err = DecodeJSON[payload]([]byte(`{`))
	assert.Error(t, err)
}

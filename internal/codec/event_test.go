package codec

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdg5/reqless-go/internal/job"
)

func header(what string, when int64) job.EventHeader {
	return job.EventHeader{What: what, When: when}
}

func TestDecodeEvent_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want job.Event
	}{
		{
			name: "put",
			raw:  `{"what":"put","when":1,"queue":"q"}`,
			want: job.PutEvent{EventHeader: header("put", 1), QueueName: "q"},
		},
		{
			name: "popped",
			raw:  `{"when":2,"worker":"w","what":"popped"}`,
			want: job.PoppedEvent{EventHeader: header("popped", 2), WorkerName: "w"},
		},
		{
			name: "done",
			raw:  `{"what":"done","when":3}`,
			want: job.DoneEvent{EventHeader: header("done", 3)},
		},
		{
			name: "failed",
			raw:  `{"what":"failed","when":4,"group":"g","worker":"w"}`,
			want: job.FailedEvent{EventHeader: header("failed", 4), Group: "g", WorkerName: "w"},
		},
		{
			name: "failed-retries",
			raw:  `{"what":"failed-retries","when":5,"group":"g"}`,
			want: job.FailedRetriesEvent{EventHeader: header("failed-retries", 5), Group: "g"},
		},
		{
			name: "throttled",
			raw:  `{"what":"throttled","when":6,"queue":"q"}`,
			want: job.ThrottledEvent{EventHeader: header("throttled", 6), QueueName: "q"},
		},
		{
			name: "timed-out",
			raw:  `{"what":"timed-out","when":7}`,
			want: job.TimedOutEvent{EventHeader: header("timed-out", 7)},
		},
		{
			name: "known variant ignores extra properties",
			raw:  `{"what":"done","when":8,"worker":"w","extra":{"a":1}}`,
			want: job.DoneEvent{EventHeader: header("done", 8)},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeEvent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEvent_DiscriminatorIsRootOnly(t *testing.T) {
	t.Parallel()

	got, err := DecodeEvent([]byte(`{"what":"done","when":1,"nested":{"what":"failed"}}`))
	require.NoError(t, err)
	assert.Equal(t, job.DoneEvent{EventHeader: header("done", 1)}, got)

	got, err = DecodeEvent([]byte(`{"nested":[{"what":"failed","group":"g","worker":"w"}],"when":1,"what":"done"}`))
	require.NoError(t, err)
	assert.IsType(t, job.DoneEvent{}, got)

	_, err = DecodeEvent([]byte(`{"when":1,"nested":{"what":"done"}}`))
	assert.EqualError(t, err, "Expected 'what' property in JSON object, but none was found.")
}

func TestDecodeEvent_Fallback(t *testing.T) {
	t.Parallel()

	raw := `{"what":"unknown","b":[1, 2],"when":9,"a":{"what":"done"},"c":null,"d":"s"}`
	got, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	want := job.LogEvent{
		EventHeader: header("unknown", 9),
		Extra: []job.RawField{
			{Name: "b", Value: json.RawMessage(`[1,2]`)},
			{Name: "a", Value: json.RawMessage(`{"what":"done"}`)},
			{Name: "c", Value: json.RawMessage(`null`)},
			{Name: "d", Value: json.RawMessage(`"s"`)},
		},
	}
	assert.Equal(t, want, got)

	ev := got.(job.LogEvent)
	assert.Equal(t, "unknown", ev.Header().What)
	v, ok := ev.Field("a")
	assert.True(t, ok)
	assert.JSONEq(t, `{"what":"done"}`, string(v))
	_, ok = ev.Field("missing")
	assert.False(t, ok)
}

func TestDecodeEvent_FallbackWithoutExtras(t *testing.T) {
	t.Parallel()

	got, err := DecodeEvent([]byte(`{"what":"","when":1}`))
	require.NoError(t, err)
	assert.Equal(t, job.LogEvent{EventHeader: header("", 1), Extra: []job.RawField{}}, got)
}

func TestDecodeEvent_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		kind    Kind
		wantMsg string
	}{
		{
			name:    "not an object",
			raw:     `["what","done"]`,
			kind:    KindMalformedRoot,
			wantMsg: "Expected reader to begin with start of object.",
		},
		{
			name:    "string root",
			raw:     `"done"`,
			kind:    KindMalformedRoot,
			wantMsg: "Expected reader to begin with start of object.",
		},
		{
			name:    "missing what",
			raw:     `{"when":1}`,
			kind:    KindMissingField,
			wantMsg: "Expected 'what' property in JSON object, but none was found.",
		},
		{
			name:    "null what",
			raw:     `{"what":null,"when":1}`,
			kind:    KindNullField,
			wantMsg: "Expected a string value for the 'what' property, got null.",
		},
		{
			name:    "numeric what",
			raw:     `{"what":3,"when":1}`,
			kind:    KindUnexpectedShape,
			wantMsg: "Expected a string value for the 'what' property, got number.",
		},
		{
			name:    "missing when",
			raw:     `{"what":"done"}`,
			kind:    KindMissingField,
			wantMsg: "Required property 'when' not found.",
		},
		{
			name:    "null when",
			raw:     `{"what":"put","when":null,"queue":"q"}`,
			kind:    KindNullField,
			wantMsg: "Value cannot be null. (Parameter 'when')",
		},
		{
			name:    "missing when on fallback",
			raw:     `{"what":"other","x":1}`,
			kind:    KindMissingField,
			wantMsg: "Required property 'when' not found.",
		},
		{
			name:    "put without queue",
			raw:     `{"what":"put","when":1}`,
			kind:    KindMissingField,
			wantMsg: "Required property 'queue' not found.",
		},
		{
			name:    "failed without worker",
			raw:     `{"what":"failed","when":1,"group":"g"}`,
			kind:    KindMissingField,
			wantMsg: "Required property 'worker' not found.",
		},
		{
			name:    "popped with null worker",
			raw:     `{"what":"popped","when":1,"worker":null}`,
			kind:    KindNullField,
			wantMsg: "Value cannot be null. (Parameter 'worker')",
		},
		{
			name:    "throttled with numeric queue",
			raw:     `{"what":"throttled","when":1,"queue":5}`,
			kind:    KindUnexpectedShape,
			wantMsg: "Expected 'queue' to be a string, got number.",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeEvent([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestEventRoundTrip(t *testing.T) {
	t.Parallel()

	events := []job.Event{
		job.PutEvent{EventHeader: header("put", 1), QueueName: "q"},
		job.PoppedEvent{EventHeader: header("popped", 2), WorkerName: "w"},
		job.DoneEvent{EventHeader: header("done", 3)},
		job.FailedEvent{EventHeader: header("failed", 4), Group: "g", WorkerName: "w"},
		job.FailedRetriesEvent{EventHeader: header("failed-retries", 5), Group: "g"},
		job.ThrottledEvent{EventHeader: header("throttled", 6), QueueName: "q"},
		job.TimedOutEvent{EventHeader: header("timed-out", 7)},
		job.LogEvent{EventHeader: header("unknown", 8), Extra: []job.RawField{}},
		job.LogEvent{
			EventHeader: header("custom", 9),
			Extra: []job.RawField{
				{Name: "zeta", Value: json.RawMessage(`{"nested":{"what":"failed"}}`)},
				{Name: "alpha", Value: json.RawMessage(`[1,"two",null,true]`)},
				{Name: "mid", Value: json.RawMessage(`-1.25e3`)},
			},
		},
	}

	for _, ev := range events {
		ev := ev
		t.Run(ev.Header().What, func(t *testing.T) {
			t.Parallel()
			b, err := EncodeEvent(ev)
			require.NoError(t, err)
			got, err := DecodeEvent(b)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestEncodeEvent_Order(t *testing.T) {
	t.Parallel()

	b, err := EncodeEvent(job.FailedEvent{EventHeader: header("failed", 4), Group: "g", WorkerName: "w"})
	require.NoError(t, err)
	assert.Equal(t, `{"what":"failed","when":4,"group":"g","worker":"w"}`, string(b))

	b, err = EncodeEvent(job.LogEvent{
		EventHeader: header("note", 1),
		Extra: []job.RawField{
			{Name: "z", Value: json.RawMessage(`1`)},
			{Name: "a", Value: json.RawMessage(`2`)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"what":"note","when":1,"z":1,"a":2}`, string(b))
}

func TestEncodeEvent_Errors(t *testing.T) {
	t.Parallel()

	_, err := EncodeEvent(nil)
	assert.Error(t, err)

	_, err = EncodeEvent(job.LogEvent{
		EventHeader: header("note", 1),
		Extra:       []job.RawField{{Name: "bad", Value: json.RawMessage(`{`)}},
	})
	assert.Error(t, err)
}

func TestDecodeEvent_Concurrent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"what":"put","when":1,"queue":"q"}`,
		`{"what":"custom","when":2,"k":[1]}`,
		`{"what":"done","when":3}`,
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(raw string) {
			defer wg.Done()
			ev, err := DecodeEvent([]byte(raw))
			assert.NoError(t, err)
			assert.NotNil(t, ev)
		}(inputs[i%len(inputs)])
	}
	wg.Wait()
}

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdg5/reqless-go/internal/job"
)

func TestDecodeJidsResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want *job.JidsResult
	}{
		{
			name: "page smaller than total",
			raw:  `{"jobs":["a","b"],"total":10}`,
			want: &job.JidsResult{Jids: []string{"a", "b"}, Total: 10},
		},
		{
			name: "empty object list",
			raw:  `{"total":0,"jobs":{}}`,
			want: &job.JidsResult{Jids: []string{}, Total: 0},
		},
		{
			name: "extra properties ignored",
			raw:  `{"jobs":["c"],"total":1,"offset":0}`,
			want: &job.JidsResult{Jids: []string{"c"}, Total: 1},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeJidsResult([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJidsResult_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		kind    Kind
		wantMsg string
	}{
		{
			name:    "not an object",
			raw:     `["a"]`,
			kind:    KindMalformedRoot,
			wantMsg: "Expected reader to begin with start of object.",
		},
		{
			name:    "missing jobs",
			raw:     `{"total":4}`,
			kind:    KindMissingField,
			wantMsg: "Expected 'jobs' property in JSON object, but none was found.",
		},
		{
			name:    "missing total",
			raw:     `{"jobs":[]}`,
			kind:    KindMissingField,
			wantMsg: "Expected 'total' property in JSON object, but none was found.",
		},
		{
			name:    "null jobs",
			raw:     `{"jobs": null, "total": 4}`,
			kind:    KindNestedDecode,
			wantMsg: "Failed to deserialize 'jobs' property into a string[]. Value cannot be null. (Parameter 'jobs')",
		},
		{
			name:    "non-empty object jobs",
			raw:     `{"jobs":{"a":"b"},"total":1}`,
			kind:    KindUnexpectedShape,
			wantMsg: "Expected 'jobs' to be an array or an empty object, got an object with 1 property.",
		},
		{
			name:    "numeric jid",
			raw:     `{"jobs":["a",2],"total":2}`,
			kind:    KindNestedDecode,
			wantMsg: "Failed to deserialize 'jobs' property into a string[]. Expected 'jobs[]' to be a string, got number.",
		},
		{
			name:    "null total",
			raw:     `{"jobs":[],"total":null}`,
			kind:    KindNullField,
			wantMsg: "Value cannot be null. (Parameter 'total')",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeJidsResult([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestDecodeJidsResult_NullJobsNamesTarget(t *testing.T) {
	t.Parallel()

	_, err := DecodeJidsResult([]byte(`{"jobs": null, "total": 4}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'jobs'")
	assert.Contains(t, err.Error(), "string[]")
	assert.ErrorIs(t, err, ErrNestedDecode)
	assert.ErrorIs(t, err, ErrNullField)
}

func TestDecodeTrackedJobsResult(t *testing.T) {
	t.Parallel()

	got, err := DecodeTrackedJobsResult([]byte(`{"expired": [], "jobs": {}}`))
	require.NoError(t, err)
	assert.Equal(t, &job.TrackedJobsResult{Jobs: []*job.Job{}, ExpiredJids: []string{}}, got)

	got, err = DecodeTrackedJobsResult([]byte(`{"jobs":[` + fullJobJSON + `],"expired":{}}`))
	require.NoError(t, err)
	assert.Equal(t, &job.TrackedJobsResult{Jobs: []*job.Job{fullJob()}, ExpiredJids: []string{}}, got)

	got, err = DecodeTrackedJobsResult([]byte(`{"expired":["x","y"],"jobs":[]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got.ExpiredJids)
}

func TestDecodeTrackedJobsResult_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		kind    Kind
		wantMsg string
	}{
		{
			name:    "missing jobs",
			raw:     `{"expired":[]}`,
			kind:    KindMissingField,
			wantMsg: "Expected 'jobs' property in JSON object, but none was found.",
		},
		{
			name:    "missing expired",
			raw:     `{"jobs":[]}`,
			kind:    KindMissingField,
			wantMsg: "Expected 'expired' property in JSON object, but none was found.",
		},
		{
			name:    "null jobs",
			raw:     `{"jobs":null,"expired":[]}`,
			kind:    KindNestedDecode,
			wantMsg: "Failed to deserialize 'jobs' property into a Job[]. Value cannot be null. (Parameter 'jobs')",
		},
		{
			name:    "bad job",
			raw:     `{"jobs":[{"jid":"x"}],"expired":[]}`,
			kind:    KindNestedDecode,
			wantMsg: "Failed to deserialize 'jobs' property into a Job[]. Required property 'data' not found.",
		},
		{
			name:    "null expired",
			raw:     `{"jobs":[],"expired":null}`,
			kind:    KindNestedDecode,
			wantMsg: "Failed to deserialize 'expired' property into a string[]. Value cannot be null. (Parameter 'expired')",
		},
		{
			name:    "non-empty object expired",
			raw:     `{"jobs":[],"expired":{"a":1,"b":2}}`,
			kind:    KindUnexpectedShape,
			wantMsg: "Expected 'expired' to be an array or an empty object, got an object with 2 properties.",
		},
		{
			name:    "not an object",
			raw:     `null`,
			kind:    KindMalformedRoot,
			wantMsg: "Expected reader to begin with start of object.",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeTrackedJobsResult([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	jids := &job.JidsResult{Jids: []string{"a", "b", "c"}, Total: 42}
	b, err := EncodeJidsResult(jids)
	require.NoError(t, err)
	assert.Equal(t, `{"jobs":["a","b","c"],"total":42}`, string(b))
	gotJids, err := DecodeJidsResult(b)
	require.NoError(t, err)
	assert.Equal(t, jids, gotJids)

	tracked := &job.TrackedJobsResult{
		Jobs:        []*job.Job{fullJob(), fullJob()},
		ExpiredJids: []string{"gone-1", "gone-2"},
	}
	tracked.Jobs[1].Jid = "second"
	b, err = EncodeTrackedJobsResult(tracked)
	require.NoError(t, err)
	gotTracked, err := DecodeTrackedJobsResult(b)
	require.NoError(t, err)
	assert.Equal(t, tracked, gotTracked)
}

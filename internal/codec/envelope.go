package codec

import (
	"encoding/json"
	"fmt"

	"github.com/tdg5/reqless-go/internal/job"
)

// DecodeJidsResult decodes the {"jobs": [...], "total": n} envelope returned
// by jobs.tagged and jobs.failedByGroup.
func DecodeJidsResult(data []byte) (*job.JidsResult, error) {
	obj, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	if err := requireEnvelope(obj, "jobs", "total"); err != nil {
		return nil, err
	}

	jids, err := envelopeList(obj, "jobs", "string[]", stringElem("jobs"))
	if err != nil {
		return nil, err
	}
	r := newFieldReader(obj)
	total := r.int("total")
	if r.err != nil {
		return nil, r.err
	}
	return &job.JidsResult{Jids: jids, Total: total}, nil
}

// DecodeTrackedJobsResult decodes the {"jobs": [...], "expired": [...]}
// envelope returned by jobs.tracked.
func DecodeTrackedJobsResult(data []byte) (*job.TrackedJobsResult, error) {
	obj, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	if err := requireEnvelope(obj, "jobs", "expired"); err != nil {
		return nil, err
	}

	jobs, err := envelopeList(obj, "jobs", "Job[]", func(raw json.RawMessage) (*job.Job, error) {
		return DecodeJob(raw)
	})
	if err != nil {
		return nil, err
	}
	expired, err := envelopeList(obj, "expired", "string[]", stringElem("expired"))
	if err != nil {
		return nil, err
	}
	return &job.TrackedJobsResult{Jobs: jobs, ExpiredJids: expired}, nil
}

func requireEnvelope(obj *object, names ...string) error {
	for _, name := range names {
		if _, p := obj.lookup(name); p == absent {
			return &DecodeError{
				Kind:    KindMissingField,
				Field:   name,
				Message: fmt.Sprintf("Expected '%s' property in JSON object, but none was found.", name),
			}
		}
	}
	return nil
}

// envelopeList coerces a list property of an envelope. A null list is a
// failure to deserialize into target rather than a bare null error.
func envelopeList[T any](obj *object, name, target string, decodeElem func(json.RawMessage) (T, error)) ([]T, error) {
	raw, p := obj.lookup(name)
	if p == presentNull {
		return nil, nestedDecode(name, target, nullField(name))
	}
	return CoerceArray(name, target, raw, decodeElem)
}

package codec

import (
	"encoding/json"

	"github.com/tdg5/reqless-go/internal/job"
)

// Wire names of the job properties, in the order they are checked and encoded.
var jobFields = []string{
	"data",
	"dependencies",
	"dependents",
	"expires",
	"failure",
	"history",
	"jid",
	"klass",
	"priority",
	"queue",
	"remaining",
	"retries",
	"spawned_from_jid",
	"state",
	"tags",
	"throttles",
	"tracked",
	"worker",
}

var failureFields = []string{"group", "message", "when", "worker"}

// DecodeJob decodes the reply of job.get.
func DecodeJob(data []byte) (*job.Job, error) {
	obj, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	return decodeJobObject(obj)
}

// DecodeJobList decodes a list of jobs, as returned by job.getMulti and
// queue.pop.
func DecodeJobList(data []byte) ([]*job.Job, error) {
	return CoerceArray("jobs", "Job[]", data, func(raw json.RawMessage) (*job.Job, error) {
		return DecodeJob(raw)
	})
}

func decodeJobObject(obj *object) (*job.Job, error) {
	if err := obj.require(jobFields...); err != nil {
		return nil, err
	}

	r := newFieldReader(obj)
	j := &job.Job{
		Data:           r.string("data"),
		Dependencies:   r.strings("dependencies"),
		Dependents:     r.strings("dependents"),
		Expires:        r.int64("expires"),
		Failure:        r.failure("failure"),
		History:        r.history("history"),
		Jid:            r.string("jid"),
		ClassName:      r.string("klass"),
		Priority:       r.int("priority"),
		QueueName:      r.string("queue"),
		Remaining:      r.int("remaining"),
		Retries:        r.int("retries"),
		SpawnedFromJid: r.optionalString("spawned_from_jid"),
		State:          r.string("state"),
		Tags:           r.strings("tags"),
		Throttles:      r.strings("throttles"),
		Tracked:        r.bool("tracked"),
		WorkerName:     r.string("worker"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return j, nil
}

// DecodeJobFailure decodes a non-empty failure object. An empty object
// decodes to nil.
func DecodeJobFailure(data []byte) (*job.Failure, error) {
	obj, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	if obj.len() == 0 {
		return nil, nil
	}
	return decodeFailureObject(obj)
}

func decodeFailureObject(obj *object) (*job.Failure, error) {
	if err := obj.require(failureFields...); err != nil {
		return nil, err
	}
	r := newFieldReader(obj)
	f := &job.Failure{
		Group:      r.string("group"),
		Message:    r.string("message"),
		When:       r.int64("when"),
		WorkerName: r.string("worker"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

func (r *fieldReader) failure(name string) *job.Failure {
	raw, ok := r.value(name, true)
	if !ok {
		return nil
	}
	switch t := typeOf(raw); t {
	case typeNull:
		return nil
	case typeObject:
		f, err := DecodeJobFailure(raw)
		if err != nil {
			r.fail(nestedDecode(name, "JobFailure", err))
			return nil
		}
		return f
	default:
		r.fail(wrongType(name, "an object", t))
		return nil
	}
}

func (r *fieldReader) history(name string) []job.Event {
	raw, ok := r.value(name, false)
	if !ok {
		return nil
	}
	events, err := CoerceArray(name, "JobEvent[]", raw, func(raw json.RawMessage) (job.Event, error) {
		return DecodeEvent(raw)
	})
	r.fail(err)
	return events
}

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tdg5/reqless-go/internal/job"
)

// Variant-specific properties of each named event, after what and when.
var eventFields = map[string][]string{
	job.WhatPut:           {"queue"},
	job.WhatPopped:        {"worker"},
	job.WhatDone:          nil,
	job.WhatFailed:        {"group", "worker"},
	job.WhatFailedRetries: {"group"},
	job.WhatThrottled:     {"queue"},
	job.WhatTimedOut:      nil,
}

// DecodeEvent decodes one history entry. The variant is chosen by the
// root-level "what" property only; unknown values yield a job.LogEvent.
func DecodeEvent(data []byte) (job.Event, error) {
	obj, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	what, err := readDiscriminator(obj)
	if err != nil {
		return nil, err
	}

	fields, known := eventFields[what]
	if err := obj.require("when"); err != nil {
		return nil, err
	}
	if err := obj.require(fields...); err != nil {
		return nil, err
	}

	r := newFieldReader(obj)
	h := job.EventHeader{What: what, When: r.int64("when")}

	var ev job.Event
	switch what {
	case job.WhatPut:
		ev = job.PutEvent{EventHeader: h, QueueName: r.string("queue")}
	case job.WhatPopped:
		ev = job.PoppedEvent{EventHeader: h, WorkerName: r.string("worker")}
	case job.WhatDone:
		ev = job.DoneEvent{EventHeader: h}
	case job.WhatFailed:
		ev = job.FailedEvent{EventHeader: h, Group: r.string("group"), WorkerName: r.string("worker")}
	case job.WhatFailedRetries:
		ev = job.FailedRetriesEvent{EventHeader: h, Group: r.string("group")}
	case job.WhatThrottled:
		ev = job.ThrottledEvent{EventHeader: h, QueueName: r.string("queue")}
	case job.WhatTimedOut:
		ev = job.TimedOutEvent{EventHeader: h}
	}
	if !known {
		ev, err = logEvent(h, obj)
		if err != nil {
			return nil, err
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return ev, nil
}

func readDiscriminator(obj *object) (string, error) {
	raw, p := obj.lookup("what")
	switch p {
	case absent:
		return "", &DecodeError{
			Kind:    KindMissingField,
			Field:   "what",
			Message: "Expected 'what' property in JSON object, but none was found.",
		}
	case presentNull:
		return "", &DecodeError{
			Kind:    KindNullField,
			Field:   "what",
			Message: "Expected a string value for the 'what' property, got null.",
		}
	}
	if t := typeOf(raw); t != typeString {
		return "", unexpectedShape("what", fmt.Sprintf("Expected a string value for the 'what' property, got %s.", t))
	}
	return decodeString("what", raw)
}

func logEvent(h job.EventHeader, obj *object) (job.LogEvent, error) {
	extra := make([]job.RawField, 0, obj.len())
	for _, f := range obj.fields {
		if f.Name == "what" || f.Name == "when" {
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, f.Value); err != nil {
			return job.LogEvent{}, &DecodeError{Kind: KindUnexpectedShape, Field: f.Name, Message: "Invalid JSON value.", Err: err}
		}
		extra = append(extra, job.RawField{Name: f.Name, Value: json.RawMessage(buf.Bytes())})
	}
	return job.LogEvent{EventHeader: h, Extra: extra}, nil
}

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tdg5/reqless-go/internal/job"
)

// objectWriter builds a JSON object with keys in call order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) key(name string) {
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	w.n++
	writeString(&w.buf, name)
	w.buf.WriteByte(':')
}

func (w *objectWriter) string(name, v string) {
	w.key(name)
	writeString(&w.buf, v)
}

func (w *objectWriter) int64(name string, v int64) {
	w.key(name)
	w.buf.WriteString(strconv.FormatInt(v, 10))
}

func (w *objectWriter) int(name string, v int) { w.int64(name, int64(v)) }

func (w *objectWriter) bool(name string, v bool) {
	w.key(name)
	w.buf.WriteString(strconv.FormatBool(v))
}

func (w *objectWriter) raw(name string, v []byte) {
	w.key(name)
	w.buf.Write(v)
}

func (w *objectWriter) strings(name string, vs []string) {
	w.key(name)
	w.buf.WriteByte('[')
	for i, v := range vs {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		writeString(&w.buf, v)
	}
	w.buf.WriteByte(']')
}

func (w *objectWriter) bytes() []byte {
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s) //nolint:errcheck // strings always marshal
	buf.Write(b)
}

// EncodeJob writes j in the canonical key order read by DecodeJob.
func EncodeJob(j *job.Job) ([]byte, error) {
	w := newObjectWriter()
	w.string("data", j.Data)
	w.strings("dependencies", j.Dependencies)
	w.strings("dependents", j.Dependents)
	w.int64("expires", j.Expires)
	if j.Failure == nil {
		w.raw("failure", []byte("{}"))
	} else {
		w.raw("failure", encodeFailure(j.Failure))
	}
	history, err := encodeEvents(j.History)
	if err != nil {
		return nil, err
	}
	w.raw("history", history)
	w.string("jid", j.Jid)
	w.string("klass", j.ClassName)
	w.int("priority", j.Priority)
	w.string("queue", j.QueueName)
	w.int("remaining", j.Remaining)
	w.int("retries", j.Retries)
	if j.SpawnedFromJid == nil {
		w.raw("spawned_from_jid", []byte("false"))
	} else {
		w.string("spawned_from_jid", *j.SpawnedFromJid)
	}
	w.string("state", j.State)
	w.strings("tags", j.Tags)
	w.strings("throttles", j.Throttles)
	w.bool("tracked", j.Tracked)
	w.string("worker", j.WorkerName)
	return w.bytes(), nil
}

// EncodeJobFailure writes f, or {} when f is nil.
func EncodeJobFailure(f *job.Failure) ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return encodeFailure(f), nil
}

func encodeFailure(f *job.Failure) []byte {
	w := newObjectWriter()
	w.string("group", f.Group)
	w.string("message", f.Message)
	w.int64("when", f.When)
	w.string("worker", f.WorkerName)
	return w.bytes()
}

func encodeEvents(events []job.Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, ev := range events {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := EncodeEvent(ev)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// EncodeEvent writes what, when, then the variant's own properties. A
// LogEvent writes its extra properties in capture order.
func EncodeEvent(ev job.Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("codec: encode event: nil event")
	}
	h := ev.Header()
	w := newObjectWriter()
	header := func(what string) {
		w.string("what", what)
		w.int64("when", h.When)
	}

	switch e := ev.(type) {
	case job.PutEvent:
		header(job.WhatPut)
		w.string("queue", e.QueueName)
	case job.PoppedEvent:
		header(job.WhatPopped)
		w.string("worker", e.WorkerName)
	case job.DoneEvent:
		header(job.WhatDone)
	case job.FailedEvent:
		header(job.WhatFailed)
		w.string("group", e.Group)
		w.string("worker", e.WorkerName)
	case job.FailedRetriesEvent:
		header(job.WhatFailedRetries)
		w.string("group", e.Group)
	case job.ThrottledEvent:
		header(job.WhatThrottled)
		w.string("queue", e.QueueName)
	case job.TimedOutEvent:
		header(job.WhatTimedOut)
	case job.LogEvent:
		header(e.What)
		for _, f := range e.Extra {
			if f.Name == "what" || f.Name == "when" {
				continue
			}
			if !json.Valid(f.Value) {
				return nil, fmt.Errorf("codec: encode event: extra property %q is not valid JSON", f.Name)
			}
			w.raw(f.Name, f.Value)
		}
	default:
		return nil, fmt.Errorf("codec: encode event: unsupported type %T", ev)
	}
	return w.bytes(), nil
}

// EncodeJidsResult writes the envelope under its historical "jobs" name.
func EncodeJidsResult(r *job.JidsResult) ([]byte, error) {
	w := newObjectWriter()
	w.strings("jobs", r.Jids)
	w.int("total", r.Total)
	return w.bytes(), nil
}

// EncodeTrackedJobsResult writes the jobs followed by the expired ids.
func EncodeTrackedJobsResult(r *job.TrackedJobsResult) ([]byte, error) {
	jobs, err := EncodeJobList(r.Jobs)
	if err != nil {
		return nil, err
	}
	w := newObjectWriter()
	w.raw("jobs", jobs)
	w.strings("expired", r.ExpiredJids)
	return w.bytes(), nil
}

// EncodeJobList writes jobs as a JSON array.
func EncodeJobList(jobs []*job.Job) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, j := range jobs {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := EncodeJob(j)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

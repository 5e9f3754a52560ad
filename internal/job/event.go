package job

import "encoding/json"

// Discriminator values for the named history events.
const (
	WhatPut           = "put"
	WhatPopped        = "popped"
	WhatDone          = "done"
	WhatFailed        = "failed"
	WhatFailedRetries = "failed-retries"
	WhatThrottled     = "throttled"
	WhatTimedOut      = "timed-out"
)

// Event is one entry of a job's history. The concrete type is one of the
// *Event structs in this file; LogEvent covers every unrecognized "what".
type Event interface {
	Header() EventHeader
	isEvent()
}

// EventHeader carries the fields shared by every history event.
type EventHeader struct {
	What string
	When int64
}

// Header returns the shared event fields.
func (h EventHeader) Header() EventHeader { return h }

// PutEvent records the job being put into a queue.
type PutEvent struct {
	EventHeader
	QueueName string
}

// PoppedEvent records a worker popping the job.
type PoppedEvent struct {
	EventHeader
	WorkerName string
}

// DoneEvent records the job completing.
type DoneEvent struct {
	EventHeader
}

// FailedEvent records a worker failing the job.
type FailedEvent struct {
	EventHeader
	Group      string
	WorkerName string
}

// FailedRetriesEvent records the job running out of retries.
type FailedRetriesEvent struct {
	EventHeader
	Group string
}

// ThrottledEvent records the job being held back by a throttle.
type ThrottledEvent struct {
	EventHeader
	QueueName string
}

// TimedOutEvent records a lost lock.
type TimedOutEvent struct {
	EventHeader
}

// LogEvent is the catch-all for discriminators without a dedicated type.
// Extra holds every other root-level property in source order.
type LogEvent struct {
	EventHeader
	Extra []RawField
}

// RawField is a property name paired with its uninterpreted JSON value.
type RawField struct {
	Name  string
	Value json.RawMessage
}

// Field returns the raw value of the named extra property.
func (e LogEvent) Field(name string) (json.RawMessage, bool) {
	for _, f := range e.Extra {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (PutEvent) isEvent()           {}
func (PoppedEvent) isEvent()        {}
func (DoneEvent) isEvent()          {}
func (FailedEvent) isEvent()        {}
func (FailedRetriesEvent) isEvent() {}
func (ThrottledEvent) isEvent()     {}
func (TimedOutEvent) isEvent()      {}
func (LogEvent) isEvent()           {}

package queue

import "time"

// PutRequest describes a job to put into a queue. Jid is generated when
// empty, Data defaults to an empty JSON object and a zero Retries leaves the
// server's default in place.
type PutRequest struct {
	Jid        string
	ClassName  string
	Data       string
	Delay      time.Duration
	Priority   int
	Retries    int
	Tags       []string
	Depends    []string
	Throttles  []string
	WorkerName string
}

// Package job holds the reqless domain model: jobs, their failures, their
// history events, and the composite results returned by listing commands.
//
// Every value here is built once by the codec package and owned by the caller;
// nothing refers back to the raw executor reply.
package job

// State names reported by the reqless server.
const (
	StateWaiting   = "waiting"
	StateRunning   = "running"
	StateScheduled = "scheduled"
	StateStalled   = "stalled"
	StateDepends   = "depends"
	StateComplete  = "complete"
	StateFailed    = "failed"
)

// Job is a queued unit of work as reported by the reqless server.
type Job struct {
	Jid            string
	ClassName      string
	Data           string
	QueueName      string
	WorkerName     string
	State          string
	Priority       int
	Remaining      int
	Retries        int
	Expires        int64
	Tracked        bool
	SpawnedFromJid *string
	Dependencies   []string
	Dependents     []string
	Tags           []string
	Throttles      []string
	History        []Event
	Failure        *Failure
}

// Failure describes the most recent failure of a job.
type Failure struct {
	Group      string
	Message    string
	When       int64
	WorkerName string
}

// HasTag reports whether the job carries tag.
func (j *Job) HasTag(tag string) bool {
	for _, t := range j.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsFailed reports whether the job currently has a failure attached.
func (j *Job) IsFailed() bool { return j.Failure != nil }

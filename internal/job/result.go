package job

// JidsResult is a page of job ids plus the server-side total. Total counts
// every match, so it can exceed len(Jids).
type JidsResult struct {
	Jids  []string
	Total int
}

// TrackedJobsResult holds the tracked jobs and the ids of tracked jobs that
// have expired since they were tracked.
type TrackedJobsResult struct {
	Jobs        []*Job
	ExpiredJids []string
}

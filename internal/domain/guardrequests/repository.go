package guardrequests

import "context"

// SubmissionRepository es el journal local de envíos del guard.
type SubmissionRepository interface {
	RecordSubmission(ctx context.Context, s Submission) error
	ListSubmissions(ctx context.Context, limit int) ([]Submission, error)
}

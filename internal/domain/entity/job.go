package entity

import "time"

type JobState string

const (
	JobStateReceived     JobState = "RECEIVED"
	JobStateFetching     JobState = "FETCHING"
	JobStateExtracting   JobState = "EXTRACTING"
	JobStatePublishing   JobState = "PUBLISHING"
	JobStateAcknowledged JobState = "ACKNOWLEDGED"
	JobStateCleanedUp    JobState = "CLEANED_UP"
	JobStateFailed       JobState = "FAILED"
)

// PreviewJob is the ledger record of the processing attempts for one reference.
type PreviewJob struct {
	Reference    string
	Mimetype     string
	State        JobState
	Attempt      int
	Step         int
	Duration     float64
	PreviewKeys  []string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewPreviewJob(reference, mimetype string) *PreviewJob {
	now := time.Now().UTC()
	return &PreviewJob{
		Reference: reference,
		Mimetype:  mimetype,
		State:     JobStateReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Begin starts a new attempt. Redelivered events reuse the same record.
func (j *PreviewJob) Begin() {
	j.State = JobStateReceived
	j.Attempt++
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

func (j *PreviewJob) Transition(state JobState) {
	j.State = state
	j.UpdatedAt = time.Now().UTC()
	if state == JobStateCleanedUp {
		now := j.UpdatedAt
		j.CompletedAt = &now
	}
}

func (j *PreviewJob) MarkPublished(step int, duration float64, keys []string) {
	j.Step = step
	j.Duration = duration
	j.PreviewKeys = keys
	j.Transition(JobStatePublishing)
}

func (j *PreviewJob) MarkFailed(errMsg string) {
	j.State = JobStateFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *PreviewJob) Terminal() bool {
	return j.State == JobStateCleanedUp || j.State == JobStateFailed
}

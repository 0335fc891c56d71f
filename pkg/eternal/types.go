package eternal

import "strings"

// EffectType classifies an effect by the kind of media it produces.
type EffectType string

const (
	EffectImage EffectType = "image"
	EffectVideo EffectType = "video"
)

// IsValid reports whether t is a recognised effect type.
func (t EffectType) IsValid() bool {
	return t == EffectImage || t == EffectVideo
}

// Effect is a selectable visual transformation offered by the upstream
// service. Effects are owned entirely by the upstream; they are never
// created or mutated locally.
type Effect struct {
	// ID is the upstream identifier passed to SubmitEffectJob.
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Type indicates whether applying the effect yields an image or a video.
	Type EffectType `json:"type"`

	// Thumbnail is an optional preview URL for the effect.
	Thumbnail string `json:"thumbnail,omitempty"`
}

// EffectPage is one page of the upstream effect catalogue. Pagination and
// filtering semantics are owned by the upstream service.
type EffectPage struct {
	Effects    []Effect `json:"effects"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	Total      int      `json:"total"`
}

// JobState is the lifecycle state reported by the upstream for a
// generation job.
type JobState string

const (
	StatePending    JobState = "pending"
	StateProcessing JobState = "processing"
	StateSucceeded  JobState = "success"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
	StateError      JobState = "error"
)

// canonical lowercases the state for comparison. The upstream is not
// consistent about status casing, so the predicates must not be either.
func (s JobState) canonical() JobState {
	return JobState(strings.ToLower(string(s)))
}

// Terminal reports whether s is a final state: the job will never change
// again and polling can stop.
func (s JobState) Terminal() bool {
	return s.Succeeded() || s.Failed()
}

// Succeeded reports whether s is a successful terminal state. The upstream
// uses "success" and "completed" interchangeably.
func (s JobState) Succeeded() bool {
	c := s.canonical()
	return c == StateSucceeded || c == StateCompleted
}

// Failed reports whether s is a failed terminal state.
func (s JobState) Failed() bool {
	c := s.canonical()
	return c == StateFailed || c == StateError
}

// Receipt is the normalised response to a generation submission. The
// upstream returns either a flat object or a nested envelope; both shapes
// normalise to this struct.
type Receipt struct {
	// RequestID is the opaque job identifier used for all later polling.
	RequestID string `json:"request_id"`

	// Status is the job state at submission time (usually pending).
	Status JobState `json:"status"`

	// Result carries an immediate result URL when the upstream completes
	// the job synchronously. Usually empty.
	Result string `json:"result,omitempty"`

	// Progress is a percentage in [0, 100].
	Progress int `json:"progress"`

	// StatusCode echoes the envelope status of nested responses; zero for
	// flat responses.
	StatusCode int `json:"status_code,omitempty"`
}

// JobStatus is the upstream's answer to a single poll of a generation job.
type JobStatus struct {
	RequestID  string   `json:"request_id"`
	Status     JobState `json:"status"`
	Progress   int      `json:"progress"`
	ResultURL  string   `json:"result_url,omitempty"`
	EffectType string   `json:"effect_type,omitempty"`
	Message    string   `json:"message,omitempty"`
}

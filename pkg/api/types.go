package api

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat transcript as sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Draft is the autosaved questionnaire state: form field name -> value.
// Screenshot previews are stored inline as data URLs.
type Draft map[string]string

// Clone returns a shallow copy safe to mutate.
func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type StudentInfo struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Group string `json:"group"`
}

type StepResult struct {
	Step   int    `json:"step"`
	Status string `json:"status,omitempty"`
}

type Answers struct {
	Q1 string `json:"q1"`
	Q2 string `json:"q2"`
	Q3 string `json:"q3"`
}

// Submission is the collected questionnaire payload.
type Submission struct {
	ID          string            `json:"id"`
	StudentInfo StudentInfo       `json:"studentInfo"`
	Steps       []StepResult      `json:"steps"`
	Answers     Answers           `json:"answers"`
	Screenshots map[string]string `json:"screenshots,omitempty"`
	SubmittedAt time.Time         `json:"submittedAt"`
	ReportID    string            `json:"reportId,omitempty"`
}

// Receipt is returned once the analysis of a submission has finished.
type Receipt struct {
	ReportID    string    `json:"reportId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

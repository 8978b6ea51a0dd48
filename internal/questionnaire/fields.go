// Package questionnaire implements the post-lab questionnaire: an autosaved
// draft of form fields, validation, collection into a submission and the
// simulated analysis that issues a report id.
package questionnaire

import (
	"strconv"
	"strings"
	"time"

	"github.com/mithrel/classkit/pkg/api"
)

// Form field names.
const (
	FieldStudentName = "studentName"
	FieldStudentID   = "studentId"
	FieldGroup       = "groupNumber"
	FieldAnswer1     = "answer1"
	FieldAnswer2     = "answer2"
	FieldAnswer3     = "answer3"
)

// StepCount is the number of experiment steps on the form.
const StepCount = 8

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

func StatusKey(step int) string { return "step" + strconv.Itoa(step) + "_status" }

func ScreenshotKey(step int) string { return "screenshot_" + strconv.Itoa(step) + "_data" }

// screenshotStep returns the step of a screenshot_<n>_data key.
func screenshotStep(key string) (int, bool) {
	if !strings.HasPrefix(key, "screenshot_") || !strings.HasSuffix(key, "_data") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(key, "screenshot_"), "_data"))
	if err != nil || n < 1 || n > StepCount {
		return 0, false
	}
	return n, true
}

// Collect builds the submission payload from a draft.
func Collect(d api.Draft, now time.Time) api.Submission {
	sub := api.Submission{
		ID: api.NewID(),
		StudentInfo: api.StudentInfo{
			Name:  d[FieldStudentName],
			ID:    d[FieldStudentID],
			Group: d[FieldGroup],
		},
		Answers: api.Answers{
			Q1: d[FieldAnswer1],
			Q2: d[FieldAnswer2],
			Q3: d[FieldAnswer3],
		},
		SubmittedAt: now.UTC(),
	}
	for i := 1; i <= StepCount; i++ {
		sub.Steps = append(sub.Steps, api.StepResult{Step: i, Status: d[StatusKey(i)]})
	}
	for k, v := range d {
		if _, ok := screenshotStep(k); ok && v != "" {
			if sub.Screenshots == nil {
				sub.Screenshots = make(map[string]string)
			}
			sub.Screenshots[k] = v
		}
	}
	return sub
}

// Fields lists every text field of the form in display order. Screenshot
// keys are excluded; they are set through attachments.
func Fields() []string {
	out := []string{FieldStudentName, FieldStudentID, FieldGroup}
	for i := 1; i <= StepCount; i++ {
		out = append(out, StatusKey(i))
	}
	return append(out, FieldAnswer1, FieldAnswer2, FieldAnswer3)
}

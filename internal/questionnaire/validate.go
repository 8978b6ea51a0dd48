package questionnaire

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mithrel/classkit/pkg/api"
)

var ErrInvalid = errors.New("invalid questionnaire")

// ValidationError names every failing field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

var notBlank = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
})

var imageDataURL = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	mime, _, err := ParseDataURL(s)
	if err != nil {
		return validation.NewError("validation_data_url", err.Error())
	}
	if !strings.HasPrefix(mime, "image/") {
		return validation.NewError("validation_image", "must be an image")
	}
	return nil
})

func draftRules() validation.MapRule {
	keys := []*validation.KeyRules{
		validation.Key(FieldStudentName, notBlank),
		validation.Key(FieldStudentID, notBlank),
		validation.Key(FieldGroup, notBlank),
	}
	for i := 1; i <= StepCount; i++ {
		keys = append(keys,
			validation.Key(StatusKey(i), validation.In(StatusSuccess, StatusFail).Error("must be success or fail")).Optional(),
			validation.Key(ScreenshotKey(i), imageDataURL).Optional(),
		)
	}
	return validation.Map(keys...).AllowExtraKeys()
}

// Validate checks the draft before submission. The returned error is a
// *ValidationError listing each failing field.
func Validate(d api.Draft) error {
	if d == nil {
		d = api.Draft{}
	}
	err := draftRules().Validate(map[string]string(d))
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for k, e := range errs {
		fields[k] = e.Error()
	}
	return &ValidationError{Fields: fields}
}

package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/classkit/pkg/api"
)

// WriteNDJSONSubmissions writes submissions as newline-delimited JSON objects.
func WriteNDJSONSubmissions(w io.Writer, subs []api.Submission) error {
	enc := json.NewEncoder(w)
	for _, s := range subs {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}

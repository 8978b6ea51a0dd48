package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/classkit/pkg/api"
)

func WriteJSONSubmissions(w io.Writer, subs []api.Submission, indent bool) error {
	if subs == nil {
		subs = []api.Submission{}
	}
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(subs)
}

func WriteJSONSubmission(w io.Writer, sub api.Submission, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(sub)
}

func WriteJSONReceipt(w io.Writer, rc api.Receipt, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rc)
}

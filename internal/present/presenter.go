package present

import (
	"fmt"
	"io"

	"github.com/mithrel/classkit/internal/present/format"
	"github.com/mithrel/classkit/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeTUI
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson", "tui".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain", "":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "tui":
		return ModeTUI, true
	default:
		return ModePlain, false
	}
}

// RenderSubmissions renders a list of submissions according to options.
func RenderSubmissions(w io.Writer, subs []api.Submission, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSONSubmissions(w, subs, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONSubmissions(w, subs)
	case ModePretty:
		for i, s := range subs {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := format.WritePrettySubmission(w, s); err != nil {
				return err
			}
		}
		return nil
	default:
		return format.WritePlainSubmissions(w, subs, opts.Headers)
	}
}

// RenderReceipt prints the outcome of a submission.
func RenderReceipt(w io.Writer, rc api.Receipt, opts Options) error {
	switch opts.Mode {
	case ModeJSON, ModeNDJSON:
		return format.WriteJSONReceipt(w, rc, opts.JSONIndent && opts.Mode == ModeJSON)
	default:
		_, err := fmt.Fprintf(w, "提交成功\n报告编号: %s\n提交时间: %s\n", rc.ReportID, rc.SubmittedAt.Local().Format("2006-01-02 15:04:05"))
		return err
	}
}

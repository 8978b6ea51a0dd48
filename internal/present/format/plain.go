package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mithrel/classkit/pkg/api"
)

// TSV columns: report_id, student_id, name, group, submitted_at, steps_ok
var headerLine = "report_id\tstudent_id\tname\tgroup\tsubmitted_at\tsteps_ok\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

// StepsOK formats succeeded/total steps, e.g. "6/8".
func StepsOK(steps []api.StepResult) string {
	ok := 0
	for _, s := range steps {
		if s.Status == "success" {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d", ok, len(steps))
}

func WritePlainSubmissions(w io.Writer, subs []api.Submission, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, s := range subs {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\n",
			esc(s.ReportID), esc(s.StudentInfo.ID), esc(s.StudentInfo.Name), esc(s.StudentInfo.Group),
			s.SubmittedAt.Local().Format(time.RFC3339), StepsOK(s.Steps))
		_, _ = io.WriteString(tw, line)
	}
	return tw.Flush()
}

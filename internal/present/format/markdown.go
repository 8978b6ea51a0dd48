package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/mithrel/classkit/pkg/api"
)

// NewRenderer returns the terminal Markdown renderer used for replies.
func NewRenderer(width int) (*glamour.TermRenderer, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return r, nil
}

// WritePrettyReply renders an assistant reply for the terminal.
func WritePrettyReply(w io.Writer, markdown string, width int) error {
	r, err := NewRenderer(width)
	if err != nil {
		return err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// WritePrettySubmission renders one submission as a Markdown report.
func WritePrettySubmission(w io.Writer, s api.Submission) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.ReportID)
	fmt.Fprintf(&b, "> **学生:** %s (%s) | **组号:** %s | **提交时间:** %s\n\n",
		s.StudentInfo.Name, s.StudentInfo.ID, s.StudentInfo.Group, s.SubmittedAt.Local().Format(time.RFC3339))
	b.WriteString("| 步骤 | 状态 | 截图 |\n|:----:|:----:|:----:|\n")
	for _, st := range s.Steps {
		status := st.Status
		if status == "" {
			status = "-"
		}
		shot := ""
		if _, ok := s.Screenshots[fmt.Sprintf("screenshot_%d_data", st.Step)]; ok {
			shot = "✓"
		}
		fmt.Fprintf(&b, "| %d | %s | %s |\n", st.Step, status, shot)
	}
	for i, a := range []string{s.Answers.Q1, s.Answers.Q2, s.Answers.Q3} {
		if strings.TrimSpace(a) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## 问题 %d\n\n%s\n", i+1, strings.TrimSpace(a))
	}
	return WritePrettyReply(w, b.String(), 80)
}

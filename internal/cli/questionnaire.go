package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/classkit/internal/editor"
	"github.com/mithrel/classkit/internal/present"
	"github.com/mithrel/classkit/internal/questionnaire"
	"github.com/mithrel/classkit/internal/ui"
	"github.com/mithrel/classkit/internal/util"
	"github.com/mithrel/classkit/pkg/api"
)

func newQuestionnaireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "questionnaire",
		Aliases: []string{"q"},
		Short:   "Fill in and submit the post-lab questionnaire",
	}
	cmd.AddCommand(newDraftCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newSubmissionsCmd())
	return cmd
}

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect and edit the autosaved draft",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := getApp(cmd).Quest.Drafts.Load(cmd.Context())
			if err != nil {
				return err
			}
			return writeDraft(cmd.OutOrStdout(), d)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set one form field",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return util.ScoreCompletions(toComplete, questionnaire.Fields(), 0), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := checkField(key); err != nil {
				return err
			}
			return mergeDraft(cmd, api.Draft{key: value})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit FIELD",
		Short: "Edit one form field in $EDITOR",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return util.ScoreCompletions(toComplete, questionnaire.Fields(), 0), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkField(key); err != nil {
				return err
			}
			app := getApp(cmd)
			d, err := app.Quest.Drafts.Load(cmd.Context())
			if err != nil {
				return err
			}
			path, err := editor.PathForField(key)
			if err != nil {
				return err
			}
			out, changed, err := editor.OpenAt(path, []byte(editor.ComposeField(key, "", d[key])))
			if err != nil {
				return err
			}
			if !changed {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Draft unchanged")
				return nil
			}
			return mergeDraft(cmd, api.Draft{key: editor.ParseField(string(out))})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "attach STEP IMAGE",
		Short: "Attach a screenshot to an experiment step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(args[0])
			if err != nil || step < 1 || step > questionnaire.StepCount {
				return fmt.Errorf("step must be between 1 and %d", questionnaire.StepCount)
			}
			url, err := questionnaire.EncodeImage(args[1])
			if err != nil {
				return err
			}
			return mergeDraft(cmd, api.Draft{questionnaire.ScreenshotKey(step): url})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the saved draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := getApp(cmd).Quest.Reset(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared")
			return nil
		},
	})
	return cmd
}

func checkField(key string) error {
	if slices.Contains(questionnaire.Fields(), key) {
		return nil
	}
	msg := fmt.Sprintf("unknown field %q", key)
	if hints := util.ScoreCompletions(key, questionnaire.Fields(), 3); len(hints) > 0 {
		msg += " (did you mean " + strings.Join(hints, ", ") + "?)"
	}
	return errors.New(msg)
}

func mergeDraft(cmd *cobra.Command, fields api.Draft) error {
	_, changed, err := getApp(cmd).Quest.Drafts.Merge(cmd.Context(), fields)
	if err != nil {
		return err
	}
	if changed {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Draft saved")
	} else {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Draft unchanged")
	}
	return nil
}

// writeDraft prints known fields in form order, then screenshots by size.
func writeDraft(w io.Writer, d api.Draft) error {
	if len(d) == 0 {
		_, err := fmt.Fprintln(w, "(empty draft)")
		return err
	}
	for _, k := range questionnaire.Fields() {
		if v, ok := d[k]; ok {
			fmt.Fprintf(w, "%s\t%s\n", k, strings.ReplaceAll(v, "\n", `\n`))
		}
	}
	var shots []string
	for k := range d {
		if strings.HasPrefix(k, "screenshot_") {
			shots = append(shots, k)
		}
	}
	sort.Strings(shots)
	for _, k := range shots {
		mime, data, err := questionnaire.ParseDataURL(d[k])
		if err != nil {
			fmt.Fprintf(w, "%s\t(invalid: %v)\n", k, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s, %d bytes\n", k, mime, len(data))
	}
	_, err := fmt.Fprintf(w, "hash\t%s\n", d.Hash())
	return err
}

func newSubmitCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate the draft and run the analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			app := getApp(cmd)
			errOut := cmd.ErrOrStderr()
			rc, err := app.Quest.Submit(cmd.Context(), func(p questionnaire.Progress) {
				mark := "…"
				if p.Done {
					mark = "✓"
				}
				fmt.Fprintf(errOut, "[%d/%d] %s %s %3.0f%%\n", p.Step, p.Total, mark, p.Label, p.Percent)
			})
			var verr *questionnaire.ValidationError
			if errors.As(err, &verr) {
				keys := make([]string, 0, len(verr.Fields))
				for k := range verr.Fields {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(errOut, "  %s: %s\n", k, verr.Fields[k])
				}
				return questionnaire.ErrInvalid
			}
			if err != nil {
				return err
			}
			return present.RenderReceipt(cmd.OutOrStdout(), rc, present.Options{Mode: mode, JSONIndent: true})
		},
	}
	cmd.Flags().StringVar(&outputMode, "output", "plain", "output mode: plain|json")
	return cmd
}

func newSubmissionsCmd() *cobra.Command {
	var outputMode string
	var noHeaders bool
	var limit int
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List recorded submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			subs, err := getApp(cmd).Quest.Submissions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if mode == present.ModeTUI {
				return ui.BrowseSubmissions(cmd.Context(), subs)
			}
			return present.RenderSubmissions(cmd.OutOrStdout(), subs, present.Options{
				Mode:    mode,
				Headers: !noHeaders,
			})
		},
	}
	cmd.Flags().StringVar(&outputMode, "output", "plain", "output mode: plain|pretty|json|ndjson|tui")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "omit the header row in plain output")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of submissions")
	return cmd
}

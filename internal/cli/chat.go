package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/internal/present/format"
	"github.com/mithrel/classkit/internal/present/tui"
)

func newChatCmd() *cobra.Command {
	var plain bool
	var htmlOut string
	cmd := &cobra.Command{
		Use:   "chat [agent]",
		Short: "Chat with a classroom agent (preview or qa)",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeAgents(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "qa"
			if len(args) > 0 {
				name = args[0]
			}
			agent, err := resolveAgent(name)
			if err != nil {
				return err
			}
			app := getApp(cmd)
			useTUI := !plain && isTerminal(cmd.OutOrStdout())
			opts := app.ChatOpts
			if useTUI {
				// log lines on stderr would tear the alternate screen
				opts.Logger = zap.NewNop()
			}
			sess := chat.NewSession(agent, app.LLM, opts)

			var last string
			if useTUI {
				res, err := tui.RunChat(cmd.Context(), sess)
				if err != nil {
					return err
				}
				last = res.LastHTML
			} else {
				last, err = runPlainChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), sess)
				if err != nil {
					return err
				}
			}
			if htmlOut != "" {
				if last == "" {
					last = sess.Welcome()
				}
				if err := os.WriteFile(htmlOut, []byte(last), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", htmlOut)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "line mode even when attached to a terminal")
	cmd.Flags().StringVar(&htmlOut, "html", "", "write the HTML of the last assistant reply to this file")
	return cmd
}

// resolveAgent looks up name and turns a miss into a "did you mean" error.
func resolveAgent(name string) (chat.Agent, error) {
	agent, err := chat.Lookup(name)
	if err == nil {
		return agent, nil
	}
	if hints := chat.Suggest(name); len(hints) > 0 {
		return chat.Agent{}, fmt.Errorf("%w: %q (did you mean %s?)", chat.ErrUnknownAgent, name, strings.Join(hints, ", "))
	}
	return chat.Agent{}, fmt.Errorf("%w: %q (available: %s)", chat.ErrUnknownAgent, name, strings.Join(chat.Names(), ", "))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runPlainChat reads one message per line and streams each reply as it
// arrives. "/reset" clears the history, "/quit" or EOF ends the chat. It
// returns the HTML of the last reply.
func runPlainChat(ctx context.Context, in io.Reader, out io.Writer, sess *chat.Session) (string, error) {
	fmt.Fprintf(out, "[%s]\n%s\n\n", sess.Agent.Title, strings.TrimSpace(sess.Agent.Welcome))

	stream := format.NewTextStream(out)
	var last string
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		line := sc.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return last, nil
		case "/reset":
			sess.Reset()
			fmt.Fprintln(out, "(history cleared)")
			continue
		}
		turn, err := sess.Send(ctx, line, stream)
		if errors.Is(err, chat.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return last, err
		}
		stream.End()
		last = stream.HTML()
		fmt.Fprintln(out)
		if turn.Err != nil && ctx.Err() != nil {
			return last, ctx.Err()
		}
	}
	fmt.Fprintln(out)
	return last, sc.Err()
}

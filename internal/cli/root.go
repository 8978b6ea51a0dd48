package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/classkit/internal/config"
	"github.com/mithrel/classkit/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// skipApp marks commands that run without the wired app (no store, no LLM).
const skipApp = "classkit/skip-app"

// Execute builds the root command and runs it.
func Execute() error {
	return run(NewRootCmd())
}

// run executes root and releases the app built for the command, if any,
// whether or not the command succeeded.
func run(root *cobra.Command) error {
	cmd, err := root.ExecuteC()
	if cmd == nil || cmd.Context() == nil {
		return err
	}
	if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
		if cerr := app.Close(context.WithoutCancel(cmd.Context())); err == nil {
			err = cerr
		}
	}
	return err
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "classkit",
		Short:         "classkit: streaming classroom agents and the lab questionnaire",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipApp] != "" {
				return nil
			}
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			app, err := wire.BuildApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml)")

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newQuestionnaireCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}

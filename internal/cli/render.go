package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mithrel/classkit/internal/render"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "render [file]",
		Short:       "Render Markdown from a file or stdin to HTML",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}
			data, err := io.ReadAll(src)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.HTML(string(data)))
			return err
		},
	}
}

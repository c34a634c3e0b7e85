package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/cli"
	"github.com/aretw0/foreman/internal/presentation/tui"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Run a task in the terminal",
	Long: `Runs the team locally and prints every worker report as it arrives.
Without a task the default research task is used. Reports are rendered as
markdown on a terminal; --json writes one JSON object per line instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		confirm, _ := cmd.Flags().GetBool("confirm-tools")
		quiet, _ := cmd.Flags().GetBool("quiet")

		task := strings.Join(args, " ")
		if task == "" {
			task = foreman.DefaultTask
		}

		var opts cli.BuildOptions
		if confirm {
			opts.Interceptor = runner.ConfirmationMiddleware(os.Stdin, os.Stderr)
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		asm, err := cli.BuildTeam(ctx, cfg, logger, opts)
		if err != nil {
			return err
		}
		defer asm.Close()

		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		var handler runner.Handler
		if jsonMode {
			handler = runner.NewJSONHandler(os.Stdout)
		} else {
			var textOpts []runner.TextHandlerOption
			if interactive {
				width := 100
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
					width = w - 4
				}
				textOpts = append(textOpts,
					runner.WithRenderer(tui.NewRenderer(width)),
					runner.WithSpeaker(tui.Speaker),
				)
				if !quiet {
					tui.PrintBanner(os.Stdout, strings.TrimSpace(foreman.Version))
				}
			}
			handler = runner.NewTextHandler(os.Stdout, textOpts...)
		}

		r := runner.NewRunner(asm.Team, runner.WithHandler(handler), runner.WithLogger(logger))
		res, err := r.Run(ctx, task)
		if sig := ctx.Signal(); sig != nil {
			return fmt.Errorf("interrupted by %v", sig)
		}
		if err != nil && res.Status == domain.StatusFailed {
			return fmt.Errorf("%s", cli.DescribeFailure(res))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("json", false, "Write JSON lines instead of text")
	runCmd.Flags().Bool("confirm-tools", false, "Ask before every tool call")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/presentation/graph"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/spf13/cobra"
)

var errInspectOnly = errors.New("team built for inspection only")

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the team topology",
	Long:  `Outputs a Mermaid diagram (graph TD) of the supervisor and the configured workers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Only the topology matters here, so no credentials are needed.
		opts := make([]foreman.Option, 0, len(cfg.Workers))
		for _, w := range cfg.Workers {
			opts = append(opts, foreman.WithWorker(w.Name, ports.WorkerFunc(
				func(context.Context, domain.Conversation) (domain.Message, error) {
					return domain.Message{}, errInspectOnly
				})))
		}
		team, err := foreman.New(ports.DelegateFunc(
			func(context.Context, []string, domain.Conversation) (domain.Verdict, error) {
				return domain.Verdict{}, errInspectOnly
			}), opts...)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(team.Nodes(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/status"
	"github.com/argos-research/argos/internal/turn"
	"github.com/argos-research/argos/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func askCMD(load func() (*config.Config, error)) *cobra.Command {
	var task string
	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one turn and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			t := models.NewTurn(uuid.NewString(), []models.Message{{
				Role:    models.RoleUser,
				Content: strings.Join(args, " "),
			}}, models.Task(task))

			controller := turn.NewController(*cfg)
			defer controller.Close()
			return runAsk(cmd.Context(), controller, t, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	ask.Flags().StringVar(&task, "task", "", "title_generation or follow_up_generation; empty runs research")
	return ask
}

// runAsk prints the answer to out and UI events to events.
func runAsk(ctx context.Context, c *turn.Controller, t models.Turn, out, events io.Writer) error {
	sink := status.SinkFunc(func(_ context.Context, ev models.Event) error {
		switch d := ev.Data.(type) {
		case models.StatusData:
			fmt.Fprintf(events, "[status] %s\n", d.Description)
		case models.CitationData:
			fmt.Fprintf(events, "[source] %s %s\n", d.Source.Name, d.Source.URL)
		}
		return nil
	})
	text, err := c.Handle(ctx, t, sink, func(chunk string) error {
		_, err := io.WriteString(out, chunk)
		return err
	})
	if err != nil {
		return err
	}
	if text != "" {
		_, err = fmt.Fprintln(out, text)
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}

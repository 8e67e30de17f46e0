package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var stageNames = []string{"Kitten", "Young cat", "Adult cat", "Majestic cat"}

type petStatus struct {
	XP          int    `json:"xp"`
	Stage       int    `json:"stage"`
	StageName   string `json:"stageName"`
	MaxStage    int    `json:"maxStage"`
	NextStageXP int    `json:"nextStageXp"`
	Thresholds  []int  `json:"thresholds"`
}

func (a *app) petStatus() petStatus {
	stage := a.pet.CurrentStage()
	return petStatus{
		XP:          a.pet.CurrentXP(),
		Stage:       stage,
		StageName:   stageNames[stage],
		MaxStage:    a.pet.MaxStage(),
		NextStageXP: a.pet.NextStageXP(),
		Thresholds:  a.pet.Thresholds(),
	}
}

// NewPetCmd creates the pet command and its subcommands
func NewPetCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pet",
		Short: "Show your cat",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			status := a.petStatus()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (stage %d of %d)\n", status.StageName, status.Stage, status.MaxStage)
			if status.Stage < status.MaxStage {
				fmt.Fprintf(out, "XP: %d / %d\n", status.XP, status.NextStageXP)
			} else {
				fmt.Fprintf(out, "XP: %d (fully grown)\n", status.XP)
			}
			return nil
		}),
	}

	cmd.AddCommand(newPetAddXPCmd(opts))
	cmd.AddCommand(newPetResetCmd(opts))

	return cmd
}

func newPetAddXPCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-xp <amount>",
		Short: "Add (or with a negative amount, remove) XP",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			if err := a.manager.AddXP(ctx, amount); err != nil {
				return err
			}

			status := a.petStatus()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "XP is now %d (stage %d)\n", status.XP, status.Stage)
			return nil
		}),
	}
}

func newPetResetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start your cat over from a kitten",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if err := a.pet.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Your cat is a kitten again")
			return nil
		}),
	}
}

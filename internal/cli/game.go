package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "In-game commands",
	}

	cmd.AddCommand(newGameStateCmd())
	cmd.AddCommand(newGameInventoryCmd())
	cmd.AddCommand(newGameInteractCmd())
	cmd.AddCommand(newGameCatchCmd())

	return cmd
}

func newGameStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <code>",
		Short: "Get current game state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			var result GameState

			if err := client.Get(fmt.Sprintf("/api/v1/sessions/%s/game", code), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory <code>",
		Short: "List the keys you currently hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			var result InventoryResult

			if err := client.Get(fmt.Sprintf("/api/v1/sessions/%s/game/inventory", code), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameInteractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interact <code> <action> <entity-id>",
		Short: "Interact with a world entity",
		Long: `Interact with a world entity.

Actions:
  collect          Pick up a key or cheese
  open_door        Open a door (runner with key, or hunter force)
  close_door       Close an open door
  enter_safe_zone  Enter a safe zone (runners only)
  exit_safe_zone   Leave a safe zone
  reach_exit       Reach the level exit (runners only)`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			action := args[1]
			entityID := args[2]

			req := map[string]string{
				"action":    action,
				"entity_id": entityID,
			}
			var result InteractResult

			if err := client.Post(fmt.Sprintf("/api/v1/sessions/%s/game/interact", code), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameCatchCmd() *cobra.Command {
	var facingX, facingY, toTargetX, toTargetY float64

	cmd := &cobra.Command{
		Use:   "catch <code> <target-connection-id>",
		Short: "Attempt to catch a runner (hunter only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			target, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid target connection id: %w", err)
			}

			req := map[string]any{
				"target_connection_id": target,
				"facing_x":             facingX,
				"facing_y":             facingY,
				"to_target_x":          toTargetX,
				"to_target_y":          toTargetY,
			}
			var result InteractResult

			if err := client.Post(fmt.Sprintf("/api/v1/sessions/%s/game/catch", code), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&facingX, "facing-x", 0, "Hunter facing direction X")
	cmd.Flags().Float64Var(&facingY, "facing-y", 0, "Hunter facing direction Y")
	cmd.Flags().Float64Var(&toTargetX, "to-x", 0, "Hunter-to-target vector X")
	cmd.Flags().Float64Var(&toTargetY, "to-y", 0, "Hunter-to-target vector Y")

	return cmd
}

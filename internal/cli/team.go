package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/roster/internal/model"
)

func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Team management commands",
	}

	cmd.AddCommand(newTeamListCmd())
	cmd.AddCommand(newTeamGetCmd())
	cmd.AddCommand(newTeamCreateCmd())
	cmd.AddCommand(newTeamUpdateCmd())
	cmd.AddCommand(newTeamDeleteCmd())

	return cmd
}

func newTeamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			teams, err := apiClient.ListTeams(cmd.Context())
			if err != nil {
				return err
			}

			output(cmd).Print(teams)
			return nil
		},
	}
}

func newTeamGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := apiClient.GetTeam(cmd.Context(), model.TeamID(args[0]))
			if err != nil {
				return err
			}

			output(cmd).Print(team)
			return nil
		},
	}
}

func newTeamCreateCmd() *cobra.Command {
	var team model.Team

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a team",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadCache(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			created, err := m.AddTeam(cmd.Context(), team)
			if err != nil {
				return err
			}

			output(cmd).Print(created)
			return nil
		},
	}

	cmd.Flags().StringVar(&team.Name, "name", "", "Team name (required)")
	cmd.Flags().StringVar(&team.Color, "color", "", "Team color as #RGB or #RRGGBB (required)")
	cmd.Flags().StringVar(&team.Description, "description", "", "Team description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("color")

	return cmd
}

func newTeamUpdateCmd() *cobra.Command {
	var name, color, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a team's name, color or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TeamPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("color") {
				patch.Color = &color
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if patch == (model.TeamPatch{}) {
				return fmt.Errorf("nothing to update: pass --name, --color or --description")
			}

			m, err := loadCache(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			updated, err := m.UpdateTeam(cmd.Context(), model.TeamID(args[0]), patch)
			if err != nil {
				return err
			}

			output(cmd).Print(updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New team name")
	cmd.Flags().StringVar(&color, "color", "", "New team color")
	cmd.Flags().StringVar(&description, "description", "", "New description")

	return cmd
}

func newTeamDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a team with no players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadCache(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			deleted, err := m.DeleteTeam(cmd.Context(), model.TeamID(args[0]))
			if err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Deleted team %s (%s)", deleted.Name, deleted.ID))
			return nil
		},
	}
}

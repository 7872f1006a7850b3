package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mcoot/roster/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerCreateCmd())
	cmd.AddCommand(newPlayerUpdateCmd())
	cmd.AddCommand(newPlayerDeleteCmd())
	cmd.AddCommand(newPlayerImageCmd())

	return cmd
}

func newPlayerListCmd() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				players []model.Player
				err     error
			)
			if team != "" {
				players, err = apiClient.ListPlayersByTeam(cmd.Context(), model.TeamID(team))
			} else {
				players, err = apiClient.ListPlayers(cmd.Context())
			}
			if err != nil {
				return err
			}

			output(cmd).Print(players)
			return nil
		},
	}

	cmd.Flags().StringVar(&team, "team", "", "Only list players on this team")

	return cmd
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := apiClient.GetPlayer(cmd.Context(), model.PlayerID(args[0]))
			if err != nil {
				return err
			}

			output(cmd).Print(player)
			return nil
		},
	}
}

// playerFlags binds every editable player field
type playerFlags struct {
	name, team, position, image, bio string
	number                           int
	avg                              float64
	homeRuns, rbi, games             int
}

func (f *playerFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.name, "name", "", "Player name")
	flags.IntVar(&f.number, "number", 0, "Jersey number (1-99)")
	flags.StringVar(&f.team, "team", "", "Team ID")
	flags.StringVar(&f.position, "position", "", "Position")
	flags.StringVar(&f.image, "image", "", "Image URL or uploaded image path")
	flags.StringVar(&f.bio, "bio", "", "Short biography")
	flags.Float64Var(&f.avg, "avg", 0, "Batting average (0-1)")
	flags.IntVar(&f.homeRuns, "hr", 0, "Home runs")
	flags.IntVar(&f.rbi, "rbi", 0, "Runs batted in")
	flags.IntVar(&f.games, "games", 0, "Games played")
}

func (f *playerFlags) player() model.Player {
	return model.Player{
		Name:     f.name,
		Number:   f.number,
		TeamID:   model.TeamID(f.team),
		Position: f.position,
		Image:    f.image,
		Bio:      f.bio,
		Stats: model.PlayerStats{
			BattingAverage: f.avg,
			HomeRuns:       f.homeRuns,
			RBI:            f.rbi,
			GamesPlayed:    f.games,
		},
	}
}

// patch includes only the flags that were set on the command line
func (f *playerFlags) patch(flags *pflag.FlagSet) model.PlayerPatch {
	var p model.PlayerPatch
	if flags.Changed("name") {
		p.Name = &f.name
	}
	if flags.Changed("number") {
		p.Number = &f.number
	}
	if flags.Changed("team") {
		team := model.TeamID(f.team)
		p.TeamID = &team
	}
	if flags.Changed("position") {
		p.Position = &f.position
	}
	if flags.Changed("image") {
		p.Image = &f.image
	}
	if flags.Changed("bio") {
		p.Bio = &f.bio
	}

	var stats model.StatsPatch
	if flags.Changed("avg") {
		stats.BattingAverage = &f.avg
	}
	if flags.Changed("hr") {
		stats.HomeRuns = &f.homeRuns
	}
	if flags.Changed("rbi") {
		stats.RBI = &f.rbi
	}
	if flags.Changed("games") {
		stats.GamesPlayed = &f.games
	}
	if stats != (model.StatsPatch{}) {
		p.Stats = &stats
	}
	return p
}

func newPlayerCreateCmd() *cobra.Command {
	var f playerFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadCache(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			created, err := m.AddPlayer(cmd.Context(), f.player())
			if err != nil {
				return err
			}

			output(cmd).Print(created)
			return nil
		},
	}

	f.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("position")

	return cmd
}

func newPlayerUpdateCmd() *cobra.Command {
	var f playerFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := f.patch(cmd.Flags())
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			m, err := loadCache(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			updated, err := m.UpdatePlayer(cmd.Context(), model.PlayerID(args[0]), patch)
			if err != nil {
				return err
			}

			output(cmd).Print(updated)
			return nil
		},
	}

	f.register(cmd.Flags())

	return cmd
}

func newPlayerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadCache(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			deleted, err := m.DeletePlayer(cmd.Context(), model.PlayerID(args[0]))
			if err != nil {
				return err
			}

			output(cmd).PrintMessage(fmt.Sprintf("Deleted player %s (%s)", deleted.Name, deleted.ID))
			return nil
		},
	}
}

func newPlayerImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <id> <file>",
		Short: "Upload a player's photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			player, err := apiClient.UploadPlayerImage(cmd.Context(), model.PlayerID(args[0]), filepath.Base(args[1]), f)
			if err != nil {
				return err
			}

			output(cmd).Print(player)
			return nil
		},
	}
}

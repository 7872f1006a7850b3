package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/roster/internal/model"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Site configuration commands",
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigUpdateCmd())

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the site configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			siteCfg, err := apiClient.GetSiteConfig(cmd.Context())
			if err != nil {
				return err
			}

			output(cmd).Print(siteCfg)
			return nil
		},
	}
}

func newConfigUpdateCmd() *cobra.Command {
	var (
		title, description         string
		primary, secondary, accent string
		year                       int
		start, end, featured       string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the given site settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch model.SiteConfigPatch
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("featured") {
				patch.FeaturedDate = &featured
			}

			var theme model.ThemePatch
			if flags.Changed("primary") {
				theme.Primary = &primary
			}
			if flags.Changed("secondary") {
				theme.Secondary = &secondary
			}
			if flags.Changed("accent") {
				theme.Accent = &accent
			}
			if theme != (model.ThemePatch{}) {
				patch.Theme = &theme
			}

			var season model.SeasonPatch
			if flags.Changed("year") {
				season.Year = &year
			}
			if flags.Changed("start") {
				season.StartDate = &start
			}
			if flags.Changed("end") {
				season.EndDate = &end
			}
			if season != (model.SeasonPatch{}) {
				patch.Season = &season
			}

			if patch == (model.SiteConfigPatch{}) {
				return fmt.Errorf("nothing to update: pass at least one setting flag")
			}

			m, err := loadCache(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			updated, err := m.UpdateSiteConfig(cmd.Context(), patch)
			if err != nil {
				return err
			}

			output(cmd).Print(updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Site title")
	cmd.Flags().StringVar(&description, "description", "", "Site description")
	cmd.Flags().StringVar(&primary, "primary", "", "Primary theme color")
	cmd.Flags().StringVar(&secondary, "secondary", "", "Secondary theme color")
	cmd.Flags().StringVar(&accent, "accent", "", "Accent theme color")
	cmd.Flags().IntVar(&year, "year", 0, "Season year")
	cmd.Flags().StringVar(&start, "start", "", "Season start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Season end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&featured, "featured", "", "Featured date (YYYY-MM-DD)")

	return cmd
}

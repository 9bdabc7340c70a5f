package commands

import (
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/seed"
	"github.com/spf13/cobra"
)

func newSeedCmd(env *environment) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample recipes",
		Long:  "Creates the recipes of a YAML fixture file. Titles that already exist are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixtures, err := loadFixtures(file)
			if err != nil {
				return err
			}

			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				result, err := rt.Seeder.Seed(cmd.Context(), fixtures)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Seeded %d recipes, skipped %d", result.Created, result.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Fixture file (defaults to the built in samples)")

	return cmd
}

func loadFixtures(file string) ([]seed.Fixture, error) {
	if file == "" {
		return seed.Default()
	}
	return seed.LoadFile(file)
}

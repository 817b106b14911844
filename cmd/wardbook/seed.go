package main

import (
	"github.com/spf13/cobra"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/seed"
)

func newSeedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load teams, lookup lists and macros",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := seed.Load(file)
			if err != nil {
				return err
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			s := seed.NewSeeder(repository.NewTeamRepository(e.db), repository.NewLookupListRepository(e.db), e.log)
			_, err = s.Apply(cmd.Context(), data)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (default: built-in reference data)")
	return cmd
}

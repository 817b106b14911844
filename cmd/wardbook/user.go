package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/auth"
)

const passwordEnv = "WARDBOOK_PASSWORD"

func newCreateUserCommand() *cobra.Command {
	var (
		c    service.CreateUserCommand
		role string
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user and their profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.Password == "" {
				c.Password = os.Getenv(passwordEnv)
			}
			if c.Password == "" {
				return errors.New("a password is required: pass --password or set " + passwordEnv)
			}
			c.Role = domain.Role(role)

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			profiles := repository.NewProfileRepository(e.db)
			svc := service.NewAuthService(
				repository.NewUserRepository(e.db),
				profiles,
				repository.NewTransactor(e.db),
				auth.NewJWTManager(e.cfg.JWT),
				nil,
				e.log,
			)
			u, err := svc.CreateUser(cmd.Context(), c)
			if err != nil {
				var ve *service.ValidationError
				if errors.As(err, &ve) {
					return fmt.Errorf("invalid user: %v", ve.Fields)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", u.Username, u.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.Username, "username", "", "login name")
	f.StringVar(&c.Password, "password", "", "initial password (or set "+passwordEnv+")")
	f.StringVar(&c.FirstName, "first-name", "", "first name")
	f.StringVar(&c.LastName, "last-name", "", "last name")
	f.StringVar(&role, "role", string(domain.RoleClinician), "role: admin, clinician, nurse, scientist, readonly or admissions")
	f.BoolVar(&c.Readonly, "readonly", false, "profile may not change records")
	f.BoolVar(&c.CanExtract, "can-extract", false, "profile may run extracts")
	f.BoolVar(&c.RestrictedOnly, "restricted-only", false, "profile sees only granted restricted teams")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

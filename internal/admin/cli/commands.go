package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/config"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

type options struct {
	dsn      string
	logLevel string
}

// NewRootCommand builds the confadmin command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	defaults := &config.Config{}
	defaults.LoadDefaults()
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "confadmin",
		Short:         "Conference organiser administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVarP(&opts.dsn, "dsn", "d", defaults.DatabaseDSN, "PostgreSQL DSN")
	cmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(migrateCmd(opts), userCmd(opts))
	return cmd
}

// withBackend opens the database for the duration of fn.
func withBackend(ctx context.Context, opts *options, fn func(backend) error) error {
	b, err := openBackend(ctx, opts.dsn)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), opts, func(b backend) error {
				if err := b.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
				return nil
			})
		},
	}
}

func userCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(userCreateCmd(opts), userListCmd(opts), userDeleteCmd(opts))
	return cmd
}

func userCreateCmd(opts *options) *cobra.Command {
	var (
		email     string
		username  string
		applicant bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account, prompting for the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			pw, err := getNewPassword(out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			return withBackend(ctx, opts, func(b backend) error {
				users := services.NewUserService(b.Gateways(), auth.NewBcryptEncoder(bcrypt.DefaultCost), logger(out, opts))
				form := services.UserForm{Email: email, Username: username, Password: string(pw), PasswordRepeat: string(pw)}

				create := users.CreateUser
				if applicant {
					create = users.Register
				}
				u, err := create(ctx, form)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Created user %s (%s) with roles %s.\n", u.Username, u.ID, strings.Join(u.Roles, ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&username, "username", "", "Login name")
	cmd.Flags().BoolVar(&applicant, "applicant", false, "Create an applicant instead of an organiser")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func userListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withBackend(ctx, opts, func(b backend) error {
				list, err := b.Gateways()().ListUsers(ctx)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLES\tACTIVE")
				for _, u := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, strings.Join(u.Roles, ","), u.IsActive)
				}
				return tw.Flush()
			})
		},
	}
}

func userDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account and its papers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withBackend(ctx, opts, func(b backend) error {
				u, err := b.Gateways()().FindByUsername(ctx, args[0])
				if err != nil {
					return fmt.Errorf("user %q: %w", args[0], err)
				}
				if err := b.DeleteUser(ctx, u.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s.\n", u.Username)
				return nil
			})
		},
	}
}

func logger(w io.Writer, opts *options) logging.Logger {
	return logging.New(w, opts.logLevel)
}

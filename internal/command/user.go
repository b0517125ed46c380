package command

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stolasapp/taskapi/internal/config"
	"github.com/stolasapp/taskapi/internal/sec"
)

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User commands",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// cobra only runs the nearest persistent pre-run
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
			if ok && cfg.Database.Driver == config.DriverMemory {
				return errors.New("user commands require a persistent database driver")
			}
			return nil
		},
	}
	cmd.AddCommand(
		userCreateCommand(),
		userDeleteCommand(),
	)
	return cmd
}

func userCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create user",
		Long: "Creates user entry for the provided username and password. Passwords may be\n" +
			"provided via stdin or through the interactive prompt.",

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			name := args[0]
			passwd, err := prompt("password: ", true)
			if err != nil {
				return err
			}
			if len(passwd) == 0 {
				return errors.New("password must not be empty")
			} else if len(passwd) > sec.MaxPasswordLen {
				return fmt.Errorf("password must be at most %d bytes", sec.MaxPasswordLen)
			}
			hash, err := sec.HashPassword(passwd)
			if err != nil {
				return err
			}
			user, err := store.CreateUser(cmd.Context(), name, hash)
			if err != nil {
				return fmt.Errorf("failed to create user %q: %w", name, err)
			}

			logger.InfoContext(cmd.Context(), "created user",
				slog.String("name", user.Name),
				slog.Uint64("id", user.ID),
			)
			return nil
		},
	}
}

func userDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete user",
		Long: "Permanently deletes the user and all of their tasks. " +
			"This operation is permanent and irreversible.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			name := args[0]
			logger = logger.With(slog.String("name", name))
			user, err := store.GetUserByName(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("failed to find user %q: %w", name, err)
			}
			resp, err := prompt("Are you sure you want to delete this user and their tasks? [y|N] ", false)
			if !bytes.Equal(resp, []byte{'y'}) || err != nil {
				logger.InfoContext(cmd.Context(), "aborted user deletion")
				return err
			}
			if err = store.DeleteUser(cmd.Context(), user.ID); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "user deleted")
			return nil
		},
	}
}

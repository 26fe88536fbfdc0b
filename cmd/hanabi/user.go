package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/config"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage stored credentials",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a user",
	Long: `Register a user directly in the credential store.

The password is prompted for when --password is not given.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered user names",
	Args:    cobra.NoArgs,
	RunE:    runUserList,
}

func init() {
	userAddCmd.Flags().String("password", "", "password (prompted when omitted)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		prompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" {
					return errors.New("password is required")
				}
				return nil
			},
		}
		password, err = prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return fmt.Errorf("read password: %w", err)
		}
	}

	cred := hanabi.Credential{Name: args[0], Password: password}
	if err = validator.New().Struct(cred); err != nil {
		return fmt.Errorf("invalid credential: %w", err)
	}

	db, err := openDatabase(cmd.Context(), cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err = db.Store().Insert(cmd.Context(), cred); err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created.\n", cred.Name)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	names, err := db.Store().List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users registered.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME")
	for i, name := range names {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, name)
	}
	return tw.Flush()
}

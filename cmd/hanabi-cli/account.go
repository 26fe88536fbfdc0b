package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/hanabi-drive/hanabi/clientcli"
)

var errCancelled = errors.New("cancelled")

var (
	passwordFlag string
	useOverride  bool
)

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Create an account",
	Long: `Create an account on the server.

The password is prompted for unless --password is given. Use --override to
send the registration as a POST with method_override=put.

Examples:
  hanabi-cli register alice
  hanabi-cli register alice --password wonderland --override`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login <name>",
	Short: "Log in and keep the session",
	Long: `Log in with a name and password. A new session cookie is stored when
the server issues one.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the clearance of the current session",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the current session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	for _, cmd := range []*cobra.Command{registerCmd, loginCmd} {
		cmd.Flags().StringVar(&passwordFlag, "password", "", "password (prompted when omitted)")
	}
	registerCmd.Flags().BoolVar(&useOverride, "override", false, "register through POST with method_override=put")
}

func runRegister(_ *cobra.Command, args []string) error {
	client, sessions, err := getClient()
	if err != nil {
		return fail(err)
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	register := client.Register
	if useOverride {
		register = client.RegisterWithOverride
	}

	result, err := register(context.Background(), args[0], password)
	if err != nil {
		return fail(err)
	}
	if err := saveSession(client, sessions); err != nil {
		return fail(err)
	}

	return getFormatter().FormatResult(os.Stdout, result)
}

func runLogin(_ *cobra.Command, args []string) error {
	client, sessions, err := getClient()
	if err != nil {
		return fail(err)
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	result, err := client.Login(context.Background(), args[0], password)
	if err != nil {
		if errors.Is(err, clientcli.ErrServer) {
			err = fmt.Errorf("%w (unknown user or wrong password)", err)
		}
		return fail(err)
	}
	if err := saveSession(client, sessions); err != nil {
		return fail(err)
	}

	return getFormatter().FormatResult(os.Stdout, result)
}

func runWhoami(_ *cobra.Command, _ []string) error {
	client, _, err := getClient()
	if err != nil {
		return fail(err)
	}

	identity, err := client.Identity(context.Background())
	if err != nil {
		return fail(err)
	}

	return getFormatter().FormatIdentity(os.Stdout, identity)
}

func runLogout(_ *cobra.Command, _ []string) error {
	client, sessions, err := getClient()
	if err != nil {
		return fail(err)
	}

	result, err := client.Revoke(context.Background())
	if err != nil {
		return fail(err)
	}
	if err := saveSession(client, sessions); err != nil {
		return fail(err)
	}

	return getFormatter().FormatResult(os.Stdout, result)
}

// readPassword returns --password or prompts for it.
func readPassword() (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}

	return ask(promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	})
}

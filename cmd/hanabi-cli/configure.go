package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/hanabi-drive/hanabi/clientcli"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage the server profiles in ~/.hanabi/config.yaml.

A profile names an account endpoint, the Origin to present to it and an
optional default user. Pick one with --profile or HANABI_PROFILE.`,
}

var configureListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles (the default is marked with *)",
	RunE:    runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile interactively",
	Long: `Prompt for the endpoint, Origin and default user of a profile, probe the
endpoint with an identity request and save the profile.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile and its stored session (default profile when no name is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigureShow,
}

func init() {
	configureCmd.AddCommand(
		configureListCmd,
		configureAddCmd,
		configureRemoveCmd,
		configureSetDefaultCmd,
		configureShowCmd,
	)
}

// loadProfiles reads the profile file. A missing file is an empty ConfigFile when
// allowMissing is set.
func loadProfiles(allowMissing bool) (*clientcli.ConfigFile, error) {
	cfg, err := clientcli.LoadConfigFile(getConfigPath())
	if err == nil {
		return cfg, nil
	}
	if allowMissing && errors.Is(err, os.ErrNotExist) {
		return &clientcli.ConfigFile{}, nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}

func saveProfiles(cfg *clientcli.ConfigFile) error {
	if err := cfg.Save(getConfigPath()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadProfiles(true)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(cfg.Profiles) == 0 {
		fmt.Fprintln(out, "No profiles configured. Run 'hanabi-cli configure add <name>' to create one.")
		return nil
	}

	defaultName := ""
	if p, err := cfg.GetDefaultProfile(); err == nil {
		defaultName = p.Name
	}
	return getFormatter().FormatProfileList(out, cfg.Profiles, defaultName)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	cfg, err := loadProfiles(true)
	if err != nil {
		return err
	}

	existing, _ := cfg.GetProfile(name)
	if existing != nil && !confirm(fmt.Sprintf("Profile '%s' exists. Update it", name)) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	profile, err := promptProfile(name, existing)
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	profile.Default = len(cfg.Profiles) == 0 || (existing != nil && existing.Default) || confirm("Set as default profile")

	fmt.Fprint(out, "Probing endpoint... ")
	if probeErr := probeEndpoint(profile); probeErr != nil {
		fmt.Fprintln(out, "FAILED")
		fmt.Fprintf(out, "Warning: %v\n", probeErr)
		if !confirm("Save profile anyway") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	} else {
		fmt.Fprintln(out, "OK")
	}

	verb := "added"
	if existing != nil {
		verb = "updated"
		err = cfg.UpdateProfile(profile)
	} else {
		err = cfg.AddProfile(profile)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if profile.Default {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}
	if err := saveProfiles(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Profile '%s' %s.\n", name, verb)
	if profile.Default {
		fmt.Fprintln(out, "It is the default profile.")
	}
	return nil
}

// promptProfile asks for the profile fields, offering the existing values as defaults.
func promptProfile(name string, existing *clientcli.Profile) (clientcli.Profile, error) {
	defaults := clientcli.Profile{Endpoint: clientcli.DefaultEndpoint, Origin: "http://localhost:3000"}
	if existing != nil {
		defaults = *existing
	}

	endpoint, err := ask(promptui.Prompt{Label: "Endpoint URL", Default: defaults.Endpoint, Validate: validateHTTPURL})
	if err != nil {
		return clientcli.Profile{}, err
	}
	origin, err := ask(promptui.Prompt{Label: "Origin (empty for none)", Default: defaults.Origin, Validate: validateOrigin})
	if err != nil {
		return clientcli.Profile{}, err
	}
	user, err := ask(promptui.Prompt{Label: "Default user (optional)", Default: defaults.User})
	if err != nil {
		return clientcli.Profile{}, err
	}

	return clientcli.Profile{
		Name:     name,
		Endpoint: strings.TrimSuffix(endpoint, "/"),
		Origin:   strings.TrimSuffix(origin, "/"),
		User:     strings.TrimSpace(user),
	}, nil
}

// probeEndpoint sends an identity request the way the account commands will, so a
// rejected Origin shows up here rather than on first login.
func probeEndpoint(p clientcli.Profile) error {
	cfg := clientcli.ConfigFromProfile(&p).WithDefaults()
	client, err := clientcli.New(cfg, clientcli.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = client.Identity(ctx)
	return err
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := loadProfiles(false)
	if err != nil {
		return err
	}
	if _, err := cfg.GetProfile(name); err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	if err := cfg.RemoveProfile(name); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	if err := saveProfiles(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	cfg, err := loadProfiles(false)
	if err != nil {
		return err
	}
	if err := cfg.SetDefault(args[0]); err != nil {
		return err
	}
	if err := saveProfiles(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default profile set to '%s'.\n", args[0])
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadProfiles(false)
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, p.Default || name == "", storedSession(p.Endpoint))
}

// storedSession returns the unexpired session saved for endpoint, if any.
func storedSession(endpoint string) *clientcli.Session {
	sessions, err := clientcli.LoadSessionFile(getSessionPath())
	if err != nil {
		return nil
	}
	s, ok := sessions.Get(endpoint, time.Now())
	if !ok {
		return nil
	}
	return &s
}

func validateHTTPURL(input string) error {
	if input == "" {
		return errors.New("URL is required")
	}
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL must name a host")
	}
	return nil
}

func validateOrigin(input string) error {
	if input == "" {
		return nil
	}
	if err := validateHTTPURL(input); err != nil {
		return err
	}
	if u, _ := url.Parse(input); u.Path != "" && u.Path != "/" {
		return errors.New("an origin has no path")
	}
	return nil
}

// ask runs a prompt, mapping abort and interrupt to errCancelled.
func ask(p promptui.Prompt) (string, error) {
	v, err := p.Run()
	if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", errCancelled
	}
	return v, err
}

// confirm asks a yes/no question; anything but yes is no.
func confirm(label string) bool {
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	return err == nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanabi-drive/hanabi/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	sessionFile string
	profileName string
	endpoint    string
	origin      string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "hanabi-cli",
	Version: version,
	Short:   "Client for the hanabi account server",
	Long: `hanabi-cli registers users, logs in and inspects the session held
against a hanabi account server.

The session cookie issued by the server is kept in ~/.hanabi/sessions.yaml so
that later commands present it again.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.hanabi/config.yaml, env: HANABI_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "session file (default: ~/.hanabi/sessions.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: HANABI_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:9998, env: HANABI_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&origin, "origin", "", "Origin header to send (env: HANABI_ORIGIN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath returns the profile config path from flag, env or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

func getSessionPath() string {
	if sessionFile != "" {
		return sessionFile
	}
	return clientcli.DefaultSessionPath()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	// 1. Load from profile
	fileCfg, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		p, profileErr := fileCfg.GetProfile(name)
		if profileErr == nil {
			configs = append(configs, clientcli.ConfigFromProfile(p))
		} else if name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles) {
			return nil, profileErr
		}
	case name != "" || cfgFile != "":
		// Only error if the user asked for a specific file or profile
		return nil, err
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{
		Endpoint: endpoint,
		Origin:   origin,
	})

	return clientcli.MergeConfig(configs...).WithDefaults(), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates a client and restores the stored session for its endpoint.
func getClient() (*clientcli.Client, *clientcli.SessionFile, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := clientcli.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	sessions, err := clientcli.LoadSessionFile(getSessionPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load sessions: %w", err)
	}
	if s, ok := sessions.Get(client.Endpoint(), time.Now()); ok {
		client.SetSession(s)
	}

	return client, sessions, nil
}

// saveSession writes the client's current session back to the session file.
func saveSession(client *clientcli.Client, sessions *clientcli.SessionFile) error {
	if s, ok := client.Session(); ok {
		sessions.Set(client.Endpoint(), s)
	} else {
		sessions.Delete(client.Endpoint())
	}
	if err := sessions.Save(getSessionPath()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// fail prints err with the active formatter and returns it.
func fail(err error) error {
	_ = getFormatter().FormatError(os.Stderr, err)
	return err
}

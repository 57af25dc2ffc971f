package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/gmail-cli/internal/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:         "init",
			Short:       "Create default configuration file",
			Args:        exactArgs(0),
			Annotations: map[string]string{skipConfig: "true"},
			RunE:        a.runConfigInit,
		},
		&cobra.Command{
			Use:   "show",
			Short: "Display the effective configuration",
			Args:  exactArgs(0),
			RunE:  a.runConfigShow,
		},
	)

	return cmd
}

func (a *app) runConfigInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return fmt.Errorf("failed to locate config: %w", err)
		}
	}

	written, err := config.Write(path)
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(out, "Config file already exists at %s\n", path)
		fmt.Fprintln(out, "Use 'gmail config show' to view current configuration")
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created config file at %s\n", path)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Create OAuth 2.0 credentials (Desktop app) for the Gmail API")
	fmt.Fprintf(out, "  2. Save credentials.json to %s\n", cfg.Auth.CredentialsPath)
	fmt.Fprintln(out, "  3. Run 'gmail labels' to authenticate")

	return nil
}

func (a *app) runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := toml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.configPath != "" {
		fmt.Fprintf(out, "# Config file: %s\n\n", a.configPath)
	}
	fmt.Fprint(out, string(data))
	return nil
}

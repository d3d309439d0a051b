package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/ayatsearch/configs"
	"github.com/Aman-CERP/ayatsearch/internal/config"
	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/output"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the project and user configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/ayatsearch/config.yaml)
  3. Project config (.ayatsearch.yaml)
  4. Environment variables (AYATSEARCH_*)`,
		Example: `  # Create a project config in the current directory
  ayatsearch config init

  # Show effective configuration (merged from all sources)
  ayatsearch config show

  # Print config file paths
  ayatsearch config path`,
	}

	cmd.AddCommand(newConfigInitCmd(flags))
	cmd.AddCommand(newConfigShowCmd(flags))
	cmd.AddCommand(newConfigPathCmd(flags))

	return cmd
}

func newConfigInitCmd(flags *globalFlags) *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create .ayatsearch.yaml in the project directory, or the user
configuration with --user. An existing file is left alone unless --force
is given, in which case it is backed up first.`,
		Example: `  # Create project config
  ayatsearch config init

  # Create user config
  ayatsearch config init --user

  # Overwrite existing config
  ayatsearch config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, flags, user, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Create the user configuration instead of the project one")

	return cmd
}

func newConfigShowCmd(flags *globalFlags) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after layering all sources, or one source
on its own with --source.`,
		Example: `  # Show merged configuration
  ayatsearch config show

  # Show as JSON
  ayatsearch config show --json

  # Show only user config
  ayatsearch config show --source user`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, flags, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config file paths",
		Long:  `Print the user configuration path and the project configuration path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := config.FindProjectRoot(flags.dir)
			if err != nil {
				return err
			}
			project := config.ProjectConfigPath(root)
			if project == "" {
				project = filepath.Join(root, config.ProjectConfigName)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\n", config.GetUserConfigPath())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "project: %s\n", project)
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, flags *globalFlags, user, force bool) error {
	out := output.New(cmd.OutOrStdout())

	path, template := filepath.Join(flags.dir, config.ProjectConfigName), configs.ProjectConfigTemplate
	if user {
		path, template = config.GetUserConfigPath(), configs.UserConfigTemplate
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to overwrite it (a backup is kept)")
			return nil
		}
		backupPath, err := config.BackupFile(path)
		if err != nil {
			return err
		}
		out.Statusf("💾", "Backup: %s", backupPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return aerrors.New(aerrors.ErrCodeFilePermission, "failed to create config directory", err).
			WithDetail("path", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(template), 0644); err != nil {
		return aerrors.New(aerrors.ErrCodeFilePermission, "failed to write config file", err).
			WithDetail("path", path)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set corpus.path to your verse file")
	out.Status("", "  2. Run 'ayatsearch config show' to verify")
	return nil
}

func runConfigShow(cmd *cobra.Command, flags *globalFlags, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg        *config.Config
		sourceDesc string
	)

	switch source {
	case "merged":
		_, loaded, err := loadConfig(flags)
		if err != nil {
			return err
		}
		cfg = loaded
		sourceDesc = "merged (defaults + user + project + env)"

	case "user", "project":
		path := config.GetUserConfigPath()
		if source == "project" {
			root, err := config.FindProjectRoot(flags.dir)
			if err != nil {
				return err
			}
			path = config.ProjectConfigPath(root)
		}
		if path == "" || !fileExists(path) {
			out.Warningf("No %s configuration file found", source)
			out.Status("💡", "Run 'ayatsearch config init' to create one")
			return nil
		}

		cfg = config.NewConfig()
		data, err := os.ReadFile(path)
		if err != nil {
			return aerrors.IOError("failed to read config file", err).WithDetail("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return aerrors.ConfigError("failed to parse config file", err).WithDetail("path", path)
		}
		sourceDesc = fmt.Sprintf("%s (%s)", source, path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return aerrors.Newf(aerrors.ErrCodeInvalidInput, "invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		return out.JSON(cfg)
	}

	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Newline()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return aerrors.InternalError("failed to marshal config", err)
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package cmd

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bilalbayram/eventscli/internal/config"
)

func NewProfileCommand(runtime Runtime) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Select the org, project and workspace commands run against",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return requireSubcommand(cmd, "profile")
		},
	}
	profileCmd.AddCommand(newProfileSetCommand(runtime))
	profileCmd.AddCommand(newProfileShowCommand(runtime))
	profileCmd.AddCommand(newProfileListCommand(runtime))
	profileCmd.AddCommand(newProfileDeleteCommand(runtime))
	return profileCmd
}

func newProfileSetCommand(runtime Runtime) *cobra.Command {
	var (
		updates    config.Profile
		useDefault bool
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Create or update a profile; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events profile set"
			name := args[0]
			path, err := configPath()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			cfg, err := config.LoadOrCreate(path)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}

			profile := cfg.Profiles[name]
			flags := cmd.Flags()
			for flag, apply := range map[string]func(){
				"org-id":         func() { profile.OrgID = updates.OrgID },
				"org-code":       func() { profile.OrgCode = updates.OrgCode },
				"org-name":       func() { profile.OrgName = updates.OrgName },
				"project-id":     func() { profile.ProjectID = updates.ProjectID },
				"project-name":   func() { profile.ProjectName = updates.ProjectName },
				"workspace-id":   func() { profile.WorkspaceID = updates.WorkspaceID },
				"workspace-name": func() { profile.WorkspaceName = updates.WorkspaceName },
				"integration-id": func() { profile.IntegrationID = updates.IntegrationID },
				"client-id":      func() { profile.ClientID = updates.ClientID },
				"base-url":       func() { profile.BaseURL = updates.BaseURL },
			} {
				if flags.Changed(flag) {
					apply()
				}
			}

			if err := cfg.UpsertProfile(name, profile); err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			if useDefault {
				cfg.DefaultProfile = name
			}
			if err := config.Save(path, cfg); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, profileView(name, profile, cfg.DefaultProfile == name), nil)
		},
	}

	cmd.Flags().StringVar(&updates.OrgID, "org-id", "", "Organization id")
	cmd.Flags().StringVar(&updates.OrgCode, "org-code", "", "IMS organization code (…@AdobeOrg)")
	cmd.Flags().StringVar(&updates.OrgName, "org-name", "", "Organization name")
	cmd.Flags().StringVar(&updates.ProjectID, "project-id", "", "Project id")
	cmd.Flags().StringVar(&updates.ProjectName, "project-name", "", "Project name")
	cmd.Flags().StringVar(&updates.WorkspaceID, "workspace-id", "", "Workspace id")
	cmd.Flags().StringVar(&updates.WorkspaceName, "workspace-name", "", "Workspace name")
	cmd.Flags().StringVar(&updates.IntegrationID, "integration-id", "", "Workspace integration id")
	cmd.Flags().StringVar(&updates.ClientID, "client-id", "", "Integration client id sent as x-api-key")
	cmd.Flags().StringVar(&updates.BaseURL, "base-url", "", "Events API base url")
	cmd.Flags().BoolVar(&useDefault, "default", false, "Make this the default profile")
	return cmd
}

func newProfileShowCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a profile (defaults to --profile or the default profile)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events profile show"
			requested := runtime.ProfileName()
			if len(args) == 1 {
				requested = args[0]
			}
			path, err := configPath()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			name, profile, err := cfg.ResolveProfile(requested)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, profileView(name, profile, cfg.DefaultProfile == name), nil)
		},
	}
}

func newProfileListCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const commandName = "events profile list"
			path, err := configPath()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			cfg, err := config.LoadOrCreate(path)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([]map[string]any, 0, len(names))
			for _, name := range names {
				rows = append(rows, profileView(name, cfg.Profiles[name], cfg.DefaultProfile == name))
			}
			return writeSuccess(cmd, runtime, commandName, rows, nil)
		},
	}
}

func newProfileDeleteCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile and its stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events profile delete"
			path, err := configPath()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			profile, ok := cfg.Profiles[args[0]]
			if !ok {
				return writeCommandError(cmd, runtime, commandName, invalidInput(errors.New("profile "+args[0]+" does not exist")))
			}
			if profile.TokenRef != "" {
				if err := newSecretStore().Delete(profile.TokenRef); err != nil {
					return writeCommandError(cmd, runtime, commandName, err)
				}
			}
			if err := cfg.DeleteProfile(args[0]); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			if err := config.Save(path, cfg); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, map[string]any{
				"status":  "deleted",
				"profile": args[0],
			}, nil)
		},
	}
}

func profileView(name string, profile config.Profile, isDefault bool) map[string]any {
	return map[string]any{
		"name":           name,
		"default":        isDefault,
		"org_id":         profile.OrgID,
		"org_code":       profile.OrgCode,
		"org_name":       profile.OrgName,
		"project_id":     profile.ProjectID,
		"project_name":   profile.ProjectName,
		"workspace_id":   profile.WorkspaceID,
		"workspace_name": profile.WorkspaceName,
		"client_id":      profile.ClientID,
		"base_url":       profile.BaseURL,
		"token_ref":      profile.TokenRef,
	}
}

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bilalbayram/eventscli/internal/events"
	"github.com/bilalbayram/eventscli/internal/validate"
)

var (
	providerLoadProfileCredentials = loadProfileCredentials
	providerNewService             = events.NewProviderService
)

func NewProviderCommand(runtime Runtime) *cobra.Command {
	providerCmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage event providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return requireSubcommand(cmd, "provider")
		},
	}
	providerCmd.AddCommand(newProviderListCommand(runtime))
	providerCmd.AddCommand(newProviderGetCommand(runtime))
	providerCmd.AddCommand(newProviderCreateCommand(runtime))
	providerCmd.AddCommand(newProviderUpdateCommand(runtime))
	providerCmd.AddCommand(newProviderDeleteCommand(runtime))
	return providerCmd
}

func newProviderListCommand(runtime Runtime) *cobra.Command {
	var (
		orgID                string
		includeEventMetadata bool
		providerMetadataIDs  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers of the organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const commandName = "events provider list"
			creds, err := providerLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			if orgID == "" {
				orgID = creds.Profile.OrgID
			}

			providers, err := providerNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).List(cmd.Context(), creds.Credentials(), orgID, events.ProviderListOptions{
				IncludeEventMetadata: includeEventMetadata,
				ProviderMetadataIDs:  csvToSlice(providerMetadataIDs),
			})
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, providers, nil)
		},
	}

	cmd.Flags().StringVar(&orgID, "org-id", "", "Organization id (defaults to the profile org)")
	cmd.Flags().BoolVar(&includeEventMetadata, "include-event-metadata", false, "Embed event metadata for each provider")
	cmd.Flags().StringVar(&providerMetadataIDs, "provider-metadata-ids", "", "Comma-separated provider metadata ids to filter by")
	return cmd
}

func newProviderGetCommand(runtime Runtime) *cobra.Command {
	var includeEventMetadata bool

	cmd := &cobra.Command{
		Use:   "get <provider-id>",
		Short: "Get a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events provider get"
			creds, err := providerLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			provider, err := providerNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Get(cmd.Context(), creds.Credentials(), args[0], includeEventMetadata)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, provider, nil)
		},
	}

	cmd.Flags().BoolVar(&includeEventMetadata, "include-event-metadata", false, "Embed the provider's event metadata")
	return cmd
}

type providerFlags struct {
	label            string
	description      string
	docsURL          string
	providerMetadata string
	instanceID       string
}

func (f *providerFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.label, "label", "", "Provider label")
	cmd.Flags().StringVar(&f.description, "description", "", "Provider description")
	cmd.Flags().StringVar(&f.docsURL, "docs-url", "", "Documentation url")
	cmd.Flags().StringVar(&f.providerMetadata, "provider-metadata", "", "Provider metadata id (defaults to custom events)")
	cmd.Flags().StringVar(&f.instanceID, "instance-id", "", "Provider instance id")
}

func (f *providerFlags) input() (events.ProviderInput, error) {
	label := strings.TrimSpace(f.label)
	if label == "" {
		return events.ProviderInput{}, errors.New("--label is required")
	}
	if err := validate.Sentence(label); err != nil {
		return events.ProviderInput{}, fmt.Errorf("--label: %w", err)
	}
	if err := validate.OptionalSentence(f.description); err != nil {
		return events.ProviderInput{}, fmt.Errorf("--description: %w", err)
	}
	return events.ProviderInput{
		Label:            label,
		Description:      f.description,
		DocsURL:          strings.TrimSpace(f.docsURL),
		ProviderMetadata: strings.TrimSpace(f.providerMetadata),
		InstanceID:       strings.TrimSpace(f.instanceID),
	}, nil
}

func newProviderCreateCommand(runtime Runtime) *cobra.Command {
	flags := &providerFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a provider in the profile workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const commandName = "events provider create"
			input, err := flags.input()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			creds, err := providerLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			scope, err := creds.Scope()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			provider, err := providerNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Create(cmd.Context(), creds.Credentials(), scope, input)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, provider, nil)
		},
	}

	flags.bind(cmd)
	mustMarkFlagRequired(cmd, "label")
	return cmd
}

func newProviderUpdateCommand(runtime Runtime) *cobra.Command {
	flags := &providerFlags{}

	cmd := &cobra.Command{
		Use:   "update <provider-id>",
		Short: "Update a provider in the profile workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events provider update"
			input, err := flags.input()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			creds, err := providerLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			scope, err := creds.Scope()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			provider, err := providerNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Update(cmd.Context(), creds.Credentials(), scope, args[0], input)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, provider, nil)
		},
	}

	flags.bind(cmd)
	mustMarkFlagRequired(cmd, "label")
	return cmd
}

func newProviderDeleteCommand(runtime Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <provider-id>",
		Short: "Delete a provider from the profile workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events provider delete"
			creds, err := providerLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			scope, err := creds.Scope()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			if err := providerNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Delete(cmd.Context(), creds.Credentials(), scope, args[0]); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, map[string]any{
				"status":      "deleted",
				"provider_id": args[0],
			}, nil)
		},
	}
	return cmd
}

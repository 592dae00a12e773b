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
	eventMetadataLoadProfileCredentials = loadProfileCredentials
	eventMetadataNewService             = events.NewEventMetadataService
)

func NewEventMetadataCommand(runtime Runtime) *cobra.Command {
	metadataCmd := &cobra.Command{
		Use:     "eventmetadata",
		Aliases: []string{"em"},
		Short:   "Manage event metadata of a provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return requireSubcommand(cmd, "eventmetadata")
		},
	}
	metadataCmd.AddCommand(newEventMetadataListCommand(runtime))
	metadataCmd.AddCommand(newEventMetadataGetCommand(runtime))
	metadataCmd.AddCommand(newEventMetadataCreateCommand(runtime))
	metadataCmd.AddCommand(newEventMetadataUpdateCommand(runtime))
	metadataCmd.AddCommand(newEventMetadataDeleteCommand(runtime))
	return metadataCmd
}

func newEventMetadataListCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list <provider-id>",
		Short: "List event metadata of a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events eventmetadata list"
			creds, err := eventMetadataLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			metadata, err := eventMetadataNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).List(cmd.Context(), creds.Credentials(), args[0])
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, metadata, nil)
		},
	}
}

func newEventMetadataGetCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "get <provider-id> <event-code>",
		Short: "Get one event metadata entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events eventmetadata get"
			creds, err := eventMetadataLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			metadata, err := eventMetadataNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Get(cmd.Context(), creds.Credentials(), args[0], args[1])
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, metadata, nil)
		},
	}
}

type eventMetadataFlags struct {
	eventCode   string
	label       string
	description string
}

func (f *eventMetadataFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.eventCode, "event-code", "", "Event code")
	cmd.Flags().StringVar(&f.label, "label", "", "Event label")
	cmd.Flags().StringVar(&f.description, "description", "", "Event description")
}

func (f *eventMetadataFlags) input() (events.EventMetadataInput, error) {
	code := strings.TrimSpace(f.eventCode)
	if code == "" {
		return events.EventMetadataInput{}, errors.New("--event-code is required")
	}
	if err := validate.EventCode(code); err != nil {
		return events.EventMetadataInput{}, fmt.Errorf("--event-code: %w", err)
	}
	label := strings.TrimSpace(f.label)
	if err := validate.Sentence(label); err != nil {
		return events.EventMetadataInput{}, fmt.Errorf("--label: %w", err)
	}
	if err := validate.OptionalSentence(f.description); err != nil {
		return events.EventMetadataInput{}, fmt.Errorf("--description: %w", err)
	}
	return events.EventMetadataInput{
		EventCode:   code,
		Label:       label,
		Description: f.description,
	}, nil
}

func newEventMetadataCreateCommand(runtime Runtime) *cobra.Command {
	flags := &eventMetadataFlags{}

	cmd := &cobra.Command{
		Use:   "create <provider-id>",
		Short: "Create event metadata for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventMetadataWrite(cmd, runtime, "events eventmetadata create", args[0], flags, false)
		},
	}

	flags.bind(cmd)
	mustMarkFlagRequired(cmd, "event-code")
	mustMarkFlagRequired(cmd, "label")
	return cmd
}

func newEventMetadataUpdateCommand(runtime Runtime) *cobra.Command {
	flags := &eventMetadataFlags{}

	cmd := &cobra.Command{
		Use:   "update <provider-id>",
		Short: "Update event metadata of a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventMetadataWrite(cmd, runtime, "events eventmetadata update", args[0], flags, true)
		},
	}

	flags.bind(cmd)
	mustMarkFlagRequired(cmd, "event-code")
	mustMarkFlagRequired(cmd, "label")
	return cmd
}

func runEventMetadataWrite(cmd *cobra.Command, runtime Runtime, commandName string, providerID string, flags *eventMetadataFlags, update bool) error {
	input, err := flags.input()
	if err != nil {
		return writeCommandError(cmd, runtime, commandName, invalidInput(err))
	}
	creds, err := eventMetadataLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
	if err != nil {
		return writeCommandError(cmd, runtime, commandName, err)
	}
	scope, err := creds.Scope()
	if err != nil {
		return writeCommandError(cmd, runtime, commandName, invalidInput(err))
	}

	service := eventMetadataNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr())))
	var metadata *events.EventMetadata
	if update {
		metadata, err = service.Update(cmd.Context(), creds.Credentials(), scope, providerID, input)
	} else {
		metadata, err = service.Create(cmd.Context(), creds.Credentials(), scope, providerID, input)
	}
	if err != nil {
		return writeCommandError(cmd, runtime, commandName, err)
	}
	return writeSuccess(cmd, runtime, commandName, metadata, nil)
}

func newEventMetadataDeleteCommand(runtime Runtime) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "delete <provider-id> [event-code]",
		Short: "Delete one event metadata entry, or all of them with --all",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events eventmetadata delete"
			eventCode := ""
			if len(args) == 2 {
				eventCode = args[1]
			}
			switch {
			case eventCode == "" && !all:
				return writeCommandError(cmd, runtime, commandName, invalidInput(errors.New("an event code or --all is required")))
			case eventCode != "" && all:
				return writeCommandError(cmd, runtime, commandName, invalidInput(errors.New("--all cannot be combined with an event code")))
			}

			creds, err := eventMetadataLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			scope, err := creds.Scope()
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			if err := eventMetadataNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Delete(cmd.Context(), creds.Credentials(), scope, args[0], eventCode); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}

			data := map[string]any{
				"status":      "deleted",
				"provider_id": args[0],
			}
			if eventCode != "" {
				data["event_code"] = eventCode
			} else {
				data["event_code"] = "*"
			}
			return writeSuccess(cmd, runtime, commandName, data, nil)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every event metadata entry of the provider")
	return cmd
}

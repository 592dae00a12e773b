package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bilalbayram/eventscli/internal/events"
	"github.com/bilalbayram/eventscli/internal/validate"
)

var (
	registrationLoadProfileCredentials = loadProfileCredentials
	registrationNewService             = events.NewRegistrationService
)

func NewRegistrationCommand(runtime Runtime) *cobra.Command {
	registrationCmd := &cobra.Command{
		Use:     "registration",
		Aliases: []string{"reg"},
		Short:   "Manage event registrations of the profile workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return requireSubcommand(cmd, "registration")
		},
	}
	registrationCmd.AddCommand(newRegistrationListCommand(runtime))
	registrationCmd.AddCommand(newRegistrationGetCommand(runtime))
	registrationCmd.AddCommand(newRegistrationCreateCommand(runtime))
	registrationCmd.AddCommand(newRegistrationDeleteCommand(runtime))
	return registrationCmd
}

// loadRegistrationScope resolves the profile and its workspace in one step.
func loadRegistrationScope(cmd *cobra.Command, runtime Runtime) (*ProfileCredentials, events.Scope, error) {
	creds, err := registrationLoadProfileCredentials(cmd.Context(), runtime.ProfileName())
	if err != nil {
		return nil, events.Scope{}, err
	}
	scope, err := creds.Scope()
	if err != nil {
		return nil, events.Scope{}, invalidInput(err)
	}
	return creds, scope, nil
}

func newRegistrationListCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registrations of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const commandName = "events registration list"
			creds, scope, err := loadRegistrationScope(cmd, runtime)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			registrations, err := registrationNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).List(cmd.Context(), creds.Credentials(), scope)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, registrations, nil)
		},
	}
}

func newRegistrationGetCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "get <registration-id>",
		Short: "Get a registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events registration get"
			creds, scope, err := loadRegistrationScope(cmd, runtime)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			registration, err := registrationNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Get(cmd.Context(), creds.Credentials(), scope, args[0])
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, registration, nil)
		},
	}
}

func newRegistrationCreateCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "create <body-file>",
		Short: "Create a registration from a JSON body file (- for stdin)",
		Long: "Create a registration from a JSON file with name, description, delivery_type, " +
			"webhook_url or runtime_action, and events_of_interest. client_id defaults to the profile client id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events registration create"
			input := events.RegistrationInput{}
			if err := readJSONFile(cmd, args[0], &input); err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			if err := validate.Sentence(input.Name); err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			if err := validate.OptionalSentence(input.Description); err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}
			for _, eventOfInterest := range input.EventsOfInterest {
				if err := validate.EventCode(eventOfInterest.EventCode); err != nil {
					return writeCommandError(cmd, runtime, commandName, invalidInput(err))
				}
			}

			creds, scope, err := loadRegistrationScope(cmd, runtime)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			if strings.TrimSpace(input.ClientID) == "" {
				input.ClientID = creds.Profile.ClientID
			}
			if err := input.Validate(); err != nil {
				return writeCommandError(cmd, runtime, commandName, invalidInput(err))
			}

			registration, err := registrationNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Create(cmd.Context(), creds.Credentials(), scope, input)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, registration, nil)
		},
	}
}

func newRegistrationDeleteCommand(runtime Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <registration-id>",
		Short: "Delete a registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const commandName = "events registration delete"
			creds, scope, err := loadRegistrationScope(cmd, runtime)
			if err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			if err := registrationNewService(creds.Client(runtime.Logger(cmd.ErrOrStderr()))).Delete(cmd.Context(), creds.Credentials(), scope, args[0]); err != nil {
				return writeCommandError(cmd, runtime, commandName, err)
			}
			return writeSuccess(cmd, runtime, commandName, map[string]any{
				"status":          "deleted",
				"registration_id": args[0],
			}, nil)
		},
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bilalbayram/eventscli/internal/cli/cmd"
	"github.com/bilalbayram/eventscli/internal/output"
)

const appName = "events"

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

type GlobalFlags struct {
	Profile string
	Output  string
	Debug   bool
}

// Execute runs the root command and maps any failure to an ExitError.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		return WrapExit(cmd.ExitCode(err), err)
	}
	return nil
}

func NewRootCommand() *cobra.Command {
	flags := &GlobalFlags{}
	runtime := cmd.Runtime{
		Profile: &flags.Profile,
		Output:  &flags.Output,
		Debug:   &flags.Debug,
	}

	root := &cobra.Command{
		Use:               appName,
		Short:             "I/O Events CLI",
		Long:              "events manages event providers, event metadata and registrations, and reconciles registrations declared in app.config.yaml during deploys.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: validateGlobalFlags(flags),
		Version:           Version,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&flags.Profile, "profile", "", "Profile name")
	root.PersistentFlags().StringVar(&flags.Output, "output", "json", "Output format: "+strings.Join(output.Formats, "|"))
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")

	root.AddCommand(cmd.NewProviderCommand(runtime))
	root.AddCommand(cmd.NewEventMetadataCommand(runtime))
	root.AddCommand(cmd.NewRegistrationCommand(runtime))
	root.AddCommand(cmd.NewHookCommand(runtime))
	root.AddCommand(cmd.NewAuthCommand(runtime))
	root.AddCommand(cmd.NewProfileCommand(runtime))
	return root
}

func validateGlobalFlags(flags *GlobalFlags) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		if output.ValidFormat(flags.Output) {
			return nil
		}
		return WrapExit(ExitCodeInput, fmt.Errorf("invalid --output value %q; expected %s", flags.Output, strings.Join(output.Formats, "|")))
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/csvview/internal/config"
	"github.com/imgajeed76/csvview/internal/ui/styles"
	"github.com/imgajeed76/csvview/internal/util"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get and set csvview options",
		Long: `Get and set csvview options stored in config.toml.

Examples:
  csvview config view.cell_width             # Get value
  csvview config view.cell_width 30          # Set value
  csvview config push.url postgres://...     # Set push target
  csvview config --list                      # List all options
  csvview config --path                      # Show config file location

Available options:
` + config.GenerateHelpText(),
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}

	cmd.Flags().BoolP("list", "l", false, "List all options with their values")
	cmd.Flags().Bool("path", false, "Print the config file path")

	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	listAll, _ := cmd.Flags().GetBool("list")
	showPath, _ := cmd.Flags().GetBool("path")

	if showPath {
		fmt.Println(config.Path())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return util.NewError("Invalid config file").
			WithMessage(err.Error()).
			WithContext(config.Path()).
			Wrap(err)
	}

	if listAll {
		for _, key := range config.ListKeys() {
			value, _ := cfg.GetValue(key)
			fmt.Printf("%s=%s\n", key, value)
		}
		return nil
	}

	if len(args) == 0 {
		return cmd.Help()
	}

	key := args[0]

	// Get or set?
	if len(args) == 1 {
		value, ok := cfg.GetValue(key)
		if !ok {
			return unknownKeyError(key)
		}
		fmt.Println(value)
		return nil
	}

	if _, ok := cfg.GetValue(key); !ok {
		return unknownKeyError(key)
	}
	if err := cfg.SetValue(key, args[1]); err != nil {
		return util.NewError(fmt.Sprintf("Invalid value for %s", key)).
			WithMessage(err.Error()).
			Wrap(err)
	}

	if err := cfg.Save(); err != nil {
		return util.NewError("Cannot save config").
			WithContext(config.Path()).
			Wrap(err)
	}

	fmt.Println(styles.SuccessMsg(fmt.Sprintf("Set %s", key)))
	return nil
}

func unknownKeyError(key string) *util.Error {
	return util.NewError(fmt.Sprintf("Unknown config key: %s", key)).
		WithSuggestions("csvview config --list")
}

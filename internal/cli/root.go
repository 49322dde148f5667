package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/csvview/internal/ui/styles"
	"github.com/imgajeed76/csvview/internal/util"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "csvview [file]",
	Short: "A fast terminal viewer for CSV and TSV files",
	Long: `csvview opens delimited text files in an interactive, spreadsheet-like
grid. The delimiter is detected from the header line, column types are
inferred, and every column can be filtered by text, numeric range, date
range or exact value.

The filtered view can be exported back to CSV, JSON or SQLite, or pushed
into a PostgreSQL table.

Running csvview with a file is the same as csvview view <file>.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runView,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		// Check if it's a structured error
		var structured *util.Error
		if errors.As(err, &structured) {
			fmt.Fprintln(os.Stderr, structured.Format())
		} else {
			// Simple error - still format nicely
			fmt.Fprintln(os.Stderr, styles.ErrorMsg(err.Error()))
		}
		return err
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("log-file", "", "Write diagnostics to this file")

	addViewFlags(rootCmd)

	// Version flag template to show more info
	rootCmd.SetVersionTemplate(fmt.Sprintf("csvview version %s\n  commit: %s\n  built:  %s\n", Version, CommitSHA, BuildDate))

	// Set up pre-run to handle global flags
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			styles.SetNoColor(true)
		}
	}

	// Add all subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newViewCmd(),
		newExportCmd(),
		newSchemaCmd(),
		newPushCmd(),
		newConfigCmd(),
		newCompletionCmd(),
	)
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for csvview.

To load completions:

Bash:
  $ source <(csvview completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ csvview completion bash > /etc/bash_completion.d/csvview
  # macOS:
  $ csvview completion bash > $(brew --prefix)/etc/bash_completion.d/csvview

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ csvview completion zsh > "${fpath[1]}/_csvview"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ csvview completion fish | source

  # To load completions for each session, execute once:
  $ csvview completion fish > ~/.config/fish/completions/csvview.fish

PowerShell:
  PS> csvview completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> csvview completion powershell > csvview.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("csvview version %s\n", Version)
			fmt.Printf("  commit: %s\n", CommitSHA)
			fmt.Printf("  built:  %s\n", BuildDate)
		},
	}
}

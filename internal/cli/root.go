package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "distroclean",
		Short: "Clean outdated package builds from distribution Yum repositories",
		Long: `Distroclean removes obsolete package builds from a set of Yum
repositories, keeping a configured number of recent releases per
source RPM and channel while always preserving the newest stable
release. Removed packages are moved to a backup directory and the
repository metadata is regenerated with createrepo_c.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewCleanCmd())

	return rootCmd
}

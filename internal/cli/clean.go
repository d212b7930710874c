package cli

import (
	"fmt"

	"github.com/ralt/distroclean/internal/cleaner"
	"github.com/ralt/distroclean/internal/config"
	"github.com/ralt/distroclean/internal/models"
	"github.com/ralt/distroclean/internal/repodata"
	"github.com/ralt/distroclean/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	var (
		configPath    string
		backupDir     string
		distroName    string
		distroVersion string
		scan          bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove outdated package builds from configured repositories",
		Long: `Indexes every configured repository, decides which package builds
are obsolete and moves them to the backup directory. Repositories
that lost packages get their metadata regenerated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			distros, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if backupDir == "" {
				backupDir = "./backup"
			}
			backupDir = utils.NormalizePath(backupDir)
			if err := utils.EnsureDir(backupDir); err != nil {
				return &models.CleanError{
					Type: models.ErrFileOp,
					Err:  fmt.Errorf("cannot create backup directory %s: %w", backupDir, err),
				}
			}

			var ext repodata.Extractor = repodata.RepomdExtractor{}
			if scan {
				logrus.Info("reading RPM headers directly instead of repodata")
				ext = repodata.ScanExtractor{}
			}

			filters := cleaner.Filters{Name: distroName, Version: distroVersion}
			return cleaner.RunAll(cmd.Context(), distros, filters, backupDir, ext)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.MarkFlagRequired("config")
	cmd.Flags().StringVarP(&backupDir, "backup-dir", "b", "",
		"Directory to store deleted packages (a \"backup\" directory is created in the current dir if omitted)")
	cmd.Flags().StringVar(&distroName, "distro-name", "",
		"Distribution name (all distributions are processed if omitted)")
	cmd.Flags().StringVar(&distroVersion, "distro-version", "",
		"Distribution version (all versions are processed if omitted)")
	cmd.Flags().BoolVar(&scan, "scan", false,
		"Build the package index from RPM headers instead of repodata")

	return cmd
}

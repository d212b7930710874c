package repodata

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ralt/distroclean/internal/models"
)

// Regenerator rebuilds a repository's on-disk metadata after
// packages were removed.
type Regenerator interface {
	Regenerate(ctx context.Context, repoPath, groupFile string) error
}

// Createrepo regenerates metadata by invoking the createrepo_c tool
type Createrepo struct {
	// Command overrides the createrepo_c binary path
	Command string
}

// Regenerate implements Regenerator
func (c Createrepo) Regenerate(ctx context.Context, repoPath, groupFile string) error {
	bin := c.Command
	if bin == "" {
		bin = "createrepo_c"
	}
	args := []string{"--keep-all-metadata", "--compatibility", "--simple-md-filenames"}
	if groupFile != "" {
		args = append(args, "--groupfile", groupFile)
	}
	args = append(args, repoPath)

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &models.CleanError{
			Type: models.ErrRegeneration,
			Repo: repoPath,
			Err:  fmt.Errorf("%s failed: %w: %s", bin, err, strings.TrimSpace(string(out))),
		}
	}
	return nil
}

package usecases

import (
	"context"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// isAvailable reports whether the git toolchain can be invoked in dir.
// Only success of the version probe matters; its output is not inspected.
func (r *ContextResolver) isAvailable(ctx context.Context, dir string) bool {
	_, err := r.probe(ctx, dir, domain.CmdGitVersion)
	return err == nil
}

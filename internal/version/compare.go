package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-pnl/pkg/errors"
)

// CheckVersionCompatibility checks whether the running engine can read a fill store
// written by storeVersion. Returns nil if compatible, a coded error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
//
// Examples:
//   - Engine 1.2.0, Store 1.2.0 -> OK (exact match)
//   - Engine 1.2.1, Store 1.2.0 -> OK (patch differs)
//   - Engine 1.3.0, Store 1.2.0 -> ERROR (minor differs)
//   - Engine 2.0.0, Store 1.2.0 -> ERROR (major differs)
//   - Engine main, Store 1.2.0 -> OK (dev build, skip check)
func CheckVersionCompatibility(engineVersion, storeVersion string) error {
	// Strip 'v' prefix if present for consistency
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	storeVersion = strings.TrimPrefix(storeVersion, "v")

	// Skip version check for "main" (development builds)
	if engineVersion == "main" || storeVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	storeSemver, err := semver.NewVersion(storeVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid store version '%s'", storeVersion)
	}

	if engineSemver.Major() != storeSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"major version mismatch: engine is %d.x.x but store was written by %d.x.x",
			engineSemver.Major(), storeSemver.Major())
	}

	if engineSemver.Minor() != storeSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"minor version mismatch: engine is %d.%d.x but store was written by %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			storeSemver.Major(), storeSemver.Minor())
	}

	// Patch versions can differ, so we're compatible
	return nil
}

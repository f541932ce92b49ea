// Package version reports how the jolt binary was built.
package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/jolt/errors"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsRelease reports whether Version is a semantic version rather than a dev build
func (i Info) IsRelease() bool {
	_, err := semver.NewVersion(i.Version)
	return err == nil
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.IsRelease() {
		return fmt.Sprintf("jolt %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("jolt dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// Satisfies checks this build against a constraint such as ">= 1.2, < 2".
// Dev builds satisfy every well-formed constraint.
func (i Info) Satisfies(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.NewInvalidRequestError("invalid version constraint %q: %v", constraint, err)
	}

	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return nil
	}
	if ok, reasons := c.Validate(v); !ok {
		err := errors.Newf("jolt %s does not satisfy %q", v, constraint)
		for _, reason := range reasons {
			err = errors.WithDetail(err, reason.Error())
		}
		return errors.WithHint(err, "upgrade jolt or relax 'requires' in am.toml")
	}
	return nil
}

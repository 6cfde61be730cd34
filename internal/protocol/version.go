// Package protocol checks host bridge API versions against the version this
// build of palprune speaks.
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/palprune/pkg/host"
)

// Version represents a parsed MAJOR.MINOR.PATCH protocol version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse parses a version string in "MAJOR.MINOR.PATCH" format.
// A leading "v" is accepted.
func Parse(version string) (Version, error) {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version format: %s (expected MAJOR.MINOR.PATCH)", version)
	}

	var nums [3]int
	for i, name := range []string{"major", "minor", "patch"} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid %s version: %s", name, parts[i])
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the string representation of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 when v is lower than, equal to or higher than o.
func (v Version) Compare(o Version) int {
	for _, d := range [3]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// IsCompatible checks whether a host bridge speaking hostVersion can serve
// this build. The major version must match exactly and the version must not
// be older than host.MinCompatibleVersion; newer minor and patch releases are
// accepted.
func IsCompatible(hostVersion string) (bool, error) {
	remote, err := Parse(hostVersion)
	if err != nil {
		return false, fmt.Errorf("failed to parse host version: %w", err)
	}

	current := Current()
	if remote.Major != current.Major {
		return false, fmt.Errorf("incompatible major version: host is %s, palprune requires %d.x.x",
			remote, current.Major)
	}

	minimum, err := Parse(host.MinCompatibleVersion)
	if err != nil {
		return false, fmt.Errorf("failed to parse minimum compatible version: %w", err)
	}
	if remote.Compare(minimum) < 0 {
		return false, fmt.Errorf("host version %s is too old, minimum required is %s", remote, minimum)
	}

	return true, nil
}

// Current returns host.ProtocolVersion parsed.
func Current() Version {
	v, err := Parse(host.ProtocolVersion)
	if err != nil {
		panic(fmt.Sprintf("invalid ProtocolVersion constant: %v", err))
	}
	return v
}

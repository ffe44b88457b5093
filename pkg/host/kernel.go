package host

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrParsingKernelVersion = errors.New("failed to parse the kernel version")

	kernelReleaseRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)
)

type KernelVersion struct {
	Major   int
	Minor   int
	Patch   int
	Release string
}

func (k KernelVersion) String() string {
	return k.Release
}

func (k KernelVersion) AtLeast(major, minor, patch int) bool {
	if k.Major != major {
		return k.Major > major
	}
	if k.Minor != minor {
		return k.Minor > minor
	}
	return k.Patch >= patch
}

// SupportsTCX reports whether tc programs can be attached through bpf links
// (tcx), available since 6.6.
func (k KernelVersion) SupportsTCX() bool {
	return k.AtLeast(6, 6, 0)
}

// ParseKernelVersion accepts releases such as "6.8.0-45-generic" or "6.6".
func ParseKernelVersion(release string) (KernelVersion, error) {
	kv := KernelVersion{Release: release}
	m := kernelReleaseRe.FindStringSubmatch(release)
	if m == nil {
		return kv, fmt.Errorf("%w: %q", ErrParsingKernelVersion, release)
	}
	kv.Major, _ = strconv.Atoi(m[1])
	kv.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		kv.Patch, _ = strconv.Atoi(m[3])
	}
	return kv, nil
}

package docsrs

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Latest selects whatever version docs.rs currently serves as newest.
const Latest = "latest"

// InvalidVersionError reports a version string that is neither "latest" nor
// a valid semantic version.
type InvalidVersionError struct {
	Raw string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("version %q is neither %q nor a semantic version", e.Raw, Latest)
}

// NormalizeVersion validates a user-supplied version. The empty string maps
// to Latest; anything else must be a semantic version without the "v"
// prefix, as crates use them.
func NormalizeVersion(s string) (string, error) {
	if s == "" || s == Latest {
		return Latest, nil
	}
	if !semver.IsValid("v" + s) {
		return "", &InvalidVersionError{Raw: s}
	}
	return s, nil
}

// CompareVersions orders two concrete crate versions semver-wise.
func CompareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

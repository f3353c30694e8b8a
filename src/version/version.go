package version

import "fmt"

// the release number, the minor number is bumped whenever a file format changes
const (
	major = 0
	minor = 2
	patch = 0
)

// GetVersion returns the full version string for the current sketchcodec software
func GetVersion() string {
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}

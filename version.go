package coroio

import "fmt"

// Version identifiers for this runtime, in the spirit of the constants
// lua-eco's embedder API registers (VERSION_MAJOR/MINOR/PATCH/STRING).
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// VersionString returns the runtime version as "MAJOR.MINOR.PATCH".
func VersionString() string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

// Package version reports which tracerank build produced a rank log or
// history row. The CLI prints it for --version.
package version

// Release builds stamp Commit and BuildDate with ldflags, e.g.
//
//	-ldflags "-X tracerank/internal/version.Commit=$(git rev-parse HEAD)"
var (
	// Version is the tracerank release.
	Version = "0.3.0"

	// Commit is the source revision, "unknown" for local builds.
	Commit = "unknown"

	// BuildDate is when the binary was built, "unknown" for local builds.
	BuildDate = "unknown"
)

// Info returns the release, with the short commit when one was stamped.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line form shown by `tracerank --version`.
func Full() string {
	return "tracerank version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

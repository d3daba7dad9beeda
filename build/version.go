package build

// CurrentCommit is set at link time via -ldflags.
var CurrentCommit string

const BuildVersion = "0.1.0"

func UserVersion() string {
	return BuildVersion + CurrentCommit
}

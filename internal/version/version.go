package version

// Set at build time via -ldflags.
var (
	AppName        = "companion"
	AppDescription = "a personal AI companion with moods of its own"
	Version        = "dev"
	BuildDate      = ""
	GoVersion      = ""
)

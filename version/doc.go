// Package version reports audioreport build information.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/audioreport/version.Version=1.2.0"
//
// Values left empty are filled from the module's embedded VCS settings.
package version

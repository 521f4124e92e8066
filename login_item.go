package main

// loginItems is the launch-at-login registration surface the tray toggle
// drives. One implementation per platform: a launchd agent plist on macOS,
// the per-user Run registry key on Windows. Enable overwrites any previous
// registration; Disable is idempotent.
type loginItems interface {
	Enable(execPath string) error
	Disable() error
	IsEnabled() bool
}

//go:build darwin

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

const launchdLabel = "com.autoreply"

// launchdPlist is the agent definition written on Enable. RunAtLoad starts
// the app at login; KeepAlive stays off so a clean exit isn't respawned.
const launchdPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"
  "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

// launchdLoginItems registers the app as a user launch agent. agentsDir is
// overridable so tests can point it at a temp directory.
type launchdLoginItems struct {
	agentsDir string
}

func newLoginItems() (loginItems, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("login item: resolve home dir: %w", err)
	}
	return &launchdLoginItems{
		agentsDir: filepath.Join(home, "Library", "LaunchAgents"),
	}, nil
}

func (l *launchdLoginItems) Enable(execPath string) error {
	if err := os.MkdirAll(l.agentsDir, 0o755); err != nil {
		return fmt.Errorf("login item: create LaunchAgents dir: %w", err)
	}
	plist := fmt.Sprintf(launchdPlist, launchdLabel, execPath)
	if err := os.WriteFile(l.agentPath(), []byte(plist), 0o644); err != nil {
		return fmt.Errorf("login item: write plist: %w", err)
	}
	return nil
}

func (l *launchdLoginItems) Disable() error {
	if err := os.Remove(l.agentPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("login item: remove plist: %w", err)
	}
	return nil
}

func (l *launchdLoginItems) IsEnabled() bool {
	_, err := os.Stat(l.agentPath())
	return err == nil
}

func (l *launchdLoginItems) agentPath() string {
	return filepath.Join(l.agentsDir, launchdLabel+".plist")
}

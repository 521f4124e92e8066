//go:build darwin

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLaunchdLoginItemsRoundTrip(t *testing.T) {
	items := &launchdLoginItems{agentsDir: filepath.Join(t.TempDir(), "LaunchAgents")}

	if items.IsEnabled() {
		t.Fatal("enabled before Enable was called")
	}
	if err := items.Enable("/Applications/AutoReply.app/Contents/MacOS/autoreply"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !items.IsEnabled() {
		t.Error("IsEnabled = false after Enable")
	}

	data, err := os.ReadFile(items.agentPath())
	if err != nil {
		t.Fatalf("read agent plist: %v", err)
	}
	plist := string(data)
	if !strings.Contains(plist, "<string>"+launchdLabel+"</string>") {
		t.Error("plist missing the agent label")
	}
	if !strings.Contains(plist, "<string>/Applications/AutoReply.app/Contents/MacOS/autoreply</string>") {
		t.Error("plist missing the executable path")
	}
	if !strings.Contains(plist, "<key>RunAtLoad</key>") {
		t.Error("plist missing RunAtLoad")
	}

	if err := items.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if items.IsEnabled() {
		t.Error("IsEnabled = true after Disable")
	}
	// Disabling again must not report the missing file as an error.
	if err := items.Disable(); err != nil {
		t.Errorf("second Disable: %v", err)
	}
}

//go:build windows

package main

import (
	"log"
	"os/exec"
)

// Notifier posts transient user notifications. Windows has no stable CLI
// for toast notifications, so this shells out to PowerShell's message box
// via a short non-blocking script.
type Notifier struct{}

// NewNotifier returns the platform notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify shows a balloon tip. Best-effort: failures are logged, never
// propagated.
func (n *Notifier) Notify(title, message string) {
	script := `Add-Type -AssemblyName System.Windows.Forms;` +
		`Add-Type -AssemblyName System.Drawing;` +
		`$b = New-Object System.Windows.Forms.NotifyIcon;` +
		`$b.Icon = [System.Drawing.SystemIcons]::Information;` +
		`$b.Visible = $true;` +
		`$b.ShowBalloonTip(5000, $env:AR_TITLE, $env:AR_TEXT, 'Info');` +
		`Start-Sleep -Seconds 5; $b.Dispose()`
	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	cmd.Env = append(cmd.Environ(), "AR_TITLE="+title, "AR_TEXT="+message)
	if err := cmd.Start(); err != nil {
		log.Printf("notify: %v", err)
		return
	}
	go func() { _ = cmd.Wait() }()
}

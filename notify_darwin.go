//go:build darwin

package main

import (
	"fmt"
	"log"
	"os/exec"
)

// Notifier posts transient user notifications through Notification Center.
type Notifier struct{}

// NewNotifier returns the platform notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify shows a single banner. Best-effort: a failed notification is
// logged, never propagated, so a broken notification path can't take the
// pipeline down with it.
func (n *Notifier) Notify(title, message string) {
	script := fmt.Sprintf(`display notification %s with title %s`,
		appleScriptLiteral(message), appleScriptLiteral(title))
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		log.Printf("notify: %v — %s", err, out)
	}
}

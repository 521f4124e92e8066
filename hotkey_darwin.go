//go:build darwin

package main

import "golang.design/x/hotkey"

// Default combos use Option rather than Shift to avoid browser conflicts
// (Cmd+Shift+R is hard reload).
const (
	defaultQuickCombo = "cmd+option+r"
	defaultDeepCombo  = "cmd+option+e"
)

var modMap = map[string]hotkey.Modifier{
	"ctrl":    hotkey.ModCtrl,
	"control": hotkey.ModCtrl,
	"option":  hotkey.ModOption,
	"alt":     hotkey.ModOption,
	"shift":   hotkey.ModShift,
	"cmd":     hotkey.ModCmd,
	"command": hotkey.ModCmd,
}

//go:build windows

package main

import "golang.design/x/hotkey"

// Default combos use Alt rather than Shift to avoid browser conflicts
// (Ctrl+Shift+R is hard reload).
const (
	defaultQuickCombo = "ctrl+alt+r"
	defaultDeepCombo  = "ctrl+alt+e"
)

var modMap = map[string]hotkey.Modifier{
	"ctrl":    hotkey.ModCtrl,
	"control": hotkey.ModCtrl,
	"alt":     hotkey.ModAlt,
	"option":  hotkey.ModAlt,
	"shift":   hotkey.ModShift,
	"win":     hotkey.ModWin,
}

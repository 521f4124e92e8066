package main

import (
	_ "embed"

	"github.com/getlantern/systray"
)

//go:embed assets/icon-template.png
var iconBytes []byte

// RunSystray owns the main thread: systray.Run blocks until Quit. onReady
// fires once the platform run loop is up, which is when the rest of the
// app is allowed to start (hotkeys on macOS need the run loop).
func RunSystray(app *App, onReady func()) {
	systray.Run(
		func() {
			onSystrayReady(app)
			onReady()
		},
		func() { app.Shutdown() },
	)
}

func onSystrayReady(app *App) {
	HideFromDock() // runs on the UI thread — safe to call NSApp here
	systray.SetTemplateIcon(iconBytes, iconBytes)
	systray.SetTooltip("AutoReply — press the hotkey in any chat")

	mQuick := systray.AddMenuItem("Quick Reply", "Reply from the visible conversation")
	mDeep := systray.AddMenuItem("Deep Scan Reply", "Scroll back and reply with more history")
	systray.AddSeparator()
	mLogin := systray.AddMenuItemCheckbox("Launch at Login", "Start AutoReply when you log in", app.LoginItemEnabled())
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit AutoReply", "Exit the application")

	go func() {
		for {
			select {
			case <-mQuick.ClickedCh:
				app.TriggerReply(KindQuick)
			case <-mDeep.ClickedCh:
				app.TriggerReply(KindDeepScan)
			case <-mLogin.ClickedCh:
				if app.ToggleLoginItem() {
					mLogin.Check()
				} else {
					mLogin.Uncheck()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

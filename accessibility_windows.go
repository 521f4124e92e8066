//go:build windows

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadPID  = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procGetGUIThreadInfo    = user32.NewProc("GetGUIThreadInfo")
	procSendMessageW        = user32.NewProc("SendMessageW")
	procEnumChildWindows    = user32.NewProc("EnumChildWindows")
	procMouseEvent          = user32.NewProc("mouse_event")
)

const (
	wmGetText       = 0x000D
	wmGetTextLength = 0x000E
	mouseEventWheel = 0x0800
	wheelDelta      = 120
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

type guiThreadInfo struct {
	CbSize        uint32
	Flags         uint32
	HwndActive    uintptr
	HwndFocus     uintptr
	HwndCapture   uintptr
	HwndMenuOwner uintptr
	HwndMoveSize  uintptr
	HwndCaret     uintptr
	RcCaret       winRect
}

// windowsReader reads the foreground window via win32. Standard edit/rich
// controls answer WM_GETTEXT; controls that expose nothing readable route
// the extractor to the screenshot+OCR fallback via ErrUnsupported.
type windowsReader struct{}

// newPlatformReader returns the Windows automation backend.
func newPlatformReader() accessibilityReader {
	return &windowsReader{}
}

// Trusted is always true on Windows: reading window text and synthesizing
// input needs no special permission grant.
func (w *windowsReader) Trusted() bool { return true }

func (w *windowsReader) FocusedTarget() (FocusedTarget, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return FocusedTarget{}, fmt.Errorf("accessibility: no foreground window")
	}
	var pid uint32
	tid, _, _ := procGetWindowThreadPID.Call(hwnd, uintptr(unsafe.Pointer(&pid)))

	target := FocusedTarget{Handle: hwnd, PID: int(pid), App: processName(pid)}
	if r, ok := windowRect(hwnd); ok {
		target.Bounds = r
	}
	// Focused child control, when the GUI thread reports one.
	var gti guiThreadInfo
	gti.CbSize = uint32(unsafe.Sizeof(gti))
	if ret, _, _ := procGetGUIThreadInfo.Call(tid, uintptr(unsafe.Pointer(&gti))); ret != 0 && gti.HwndFocus != 0 {
		if r, ok := windowRect(gti.HwndFocus); ok && (target.Bounds.IsZero() || target.Bounds.Contains(r)) {
			target.Control = r
		}
	}
	return target, nil
}

// enumChildProc collects child-control text during EnumChildWindows. The
// runtime's callback table is fixed-size and never released, so this is
// created exactly once; the per-call line slice travels through lParam.
var enumChildProc = syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
	lines := (*[]string)(unsafe.Pointer(lparam))
	if t := controlText(hwnd); t != "" {
		*lines = append(*lines, strings.Split(t, "\r\n")...)
	}
	return 1 // continue enumeration
})

func (w *windowsReader) ReadLines(target FocusedTarget) ([]string, error) {
	if target.Handle == 0 {
		return nil, ErrUnsupported
	}
	var lines []string
	if t := controlText(target.Handle); t != "" {
		lines = append(lines, strings.Split(t, "\r\n")...)
	}
	// Child controls carry the message history in most chat clients.
	procEnumChildWindows.Call(target.Handle, enumChildProc, uintptr(unsafe.Pointer(&lines)))

	if len(lines) == 0 {
		return nil, ErrUnsupported
	}
	return lines, nil
}

func (w *windowsReader) ScrollUp(amount int) error {
	ret, _, err := procMouseEvent.Call(mouseEventWheel, 0, 0, uintptr(uint32(int32(amount*wheelDelta))), 0)
	if ret == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("accessibility: scroll: %w", err)
	}
	return nil
}

// controlText reads a window/control's text via WM_GETTEXT, which covers
// titles, edit controls, and rich-edit controls. Empty string when the
// control exposes nothing.
func controlText(hwnd uintptr) string {
	n, _, _ := procSendMessageW.Call(hwnd, wmGetTextLength, 0, 0)
	if n == 0 || n > 1<<20 {
		return ""
	}
	buf := make([]uint16, n+1)
	copied, _, _ := procSendMessageW.Call(hwnd, wmGetText, n+1, uintptr(unsafe.Pointer(&buf[0])))
	if copied == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:copied])
}

func windowRect(hwnd uintptr) (Rect, bool) {
	var r winRect
	if ret, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ret == 0 {
		return Rect{}, false
	}
	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, true
}

// processName resolves the executable basename for a PID, without the .exe
// suffix, matching how chat apps are usually referred to.
func processName(pid uint32) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "Unknown"
	}
	defer windows.CloseHandle(h)
	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "Unknown"
	}
	name := filepath.Base(windows.UTF16ToString(buf[:size]))
	return strings.TrimSuffix(name, ".exe")
}

// HideFromDock is a no-op on Windows; the process has no Dock presence.
func HideFromDock() {}

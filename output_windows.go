//go:build windows

package main

import (
	"fmt"
	"unicode/utf16"
	"unsafe"

	"github.com/atotto/clipboard"
	"golang.org/x/sys/windows"
)

var procSendInput = user32.NewProc("SendInput")

const (
	inputKeyboard      = 1
	keyeventfKeyUp     = 0x0002
	keyeventfUnicode   = 0x0004
	vkControl          = 0x11
	vkV                = 0x56
	keyboardInputBytes = 40 // sizeof(INPUT) on 64-bit
)

// keyboardInput mirrors the win32 INPUT struct with a KEYBDINPUT payload.
type keyboardInput struct {
	Type uint32
	_    uint32 // struct alignment padding
	Ki   struct {
		Vk        uint16
		Scan      uint16
		Flags     uint32
		Time      uint32
		ExtraInfo uintptr
		_         [8]byte // pad to the union size of INPUT
	}
}

// windowsInjectionBackend synthesizes input via SendInput. Unicode text
// goes out as KEYEVENTF_UNICODE events per UTF-16 code unit — surrogate
// pairs stay paired, so no code point is ever split.
type windowsInjectionBackend struct{}

func newRealInjectionBackend() injectionBackend {
	return &windowsInjectionBackend{}
}

func (w *windowsInjectionBackend) TypeChunk(text string) error {
	units := utf16.Encode([]rune(text))
	inputs := make([]keyboardInput, 0, len(units)*2)
	for _, u := range units {
		var down, up keyboardInput
		down.Type = inputKeyboard
		down.Ki.Scan = u
		down.Ki.Flags = keyeventfUnicode
		up.Type = inputKeyboard
		up.Ki.Scan = u
		up.Ki.Flags = keyeventfUnicode | keyeventfKeyUp
		inputs = append(inputs, down, up)
	}
	return sendInputs(inputs)
}

func (w *windowsInjectionBackend) PasteViaClipboard(text string) error {
	if err := w.CopyToClipboard(text); err != nil {
		return err
	}
	press := func(vk uint16, flags uint32) keyboardInput {
		var in keyboardInput
		in.Type = inputKeyboard
		in.Ki.Vk = vk
		in.Ki.Flags = flags
		return in
	}
	return sendInputs([]keyboardInput{
		press(vkControl, 0),
		press(vkV, 0),
		press(vkV, keyeventfKeyUp),
		press(vkControl, keyeventfKeyUp),
	})
}

func (w *windowsInjectionBackend) CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

func sendInputs(inputs []keyboardInput) error {
	if len(inputs) == 0 {
		return nil
	}
	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(keyboardInputBytes),
	)
	if int(n) != len(inputs) {
		if err != nil && err != windows.ERROR_SUCCESS {
			return fmt.Errorf("SendInput delivered %d/%d events: %w", n, len(inputs), err)
		}
		return fmt.Errorf("SendInput delivered %d/%d events", n, len(inputs))
	}
	return nil
}

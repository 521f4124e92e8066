//go:build windows

package main

import "testing"

func TestReadLinesDoesNotExhaustCallbackTable(t *testing.T) {
	// The runtime caps process-wide win32 callbacks at roughly 2000 and
	// never frees them. Enumerating child windows must reuse one shared
	// callback, so thousands of reads stay well under the cap.
	r := &windowsReader{}
	target := FocusedTarget{Handle: 0xDEAD} // stale handle: enumeration is a no-op
	for i := 0; i < 5000; i++ {
		_, _ = r.ReadLines(target)
	}
}

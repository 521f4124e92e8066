//go:build darwin

package main

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework AppKit -framework Foundation
#include <stdlib.h>
#import <AppKit/AppKit.h>
#import <ApplicationServices/ApplicationServices.h>

static bool ax_trusted(void) {
	return AXIsProcessTrusted();
}

static int ax_frontmost_pid(void) {
	NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
	if (app == nil) {
		return 0;
	}
	return (int)[app processIdentifier];
}

// Caller frees the returned string.
static char *ax_frontmost_app_name(void) {
	NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
	if (app == nil || app.localizedName == nil) {
		return NULL;
	}
	return strdup([app.localizedName UTF8String]);
}

static CFTypeRef ax_attr(AXUIElementRef el, CFStringRef attr) {
	CFTypeRef value = NULL;
	if (AXUIElementCopyAttributeValue(el, attr, &value) != kAXErrorSuccess) {
		return NULL;
	}
	return value;
}

static void ax_append_string(NSMutableString *out, CFTypeRef value) {
	if (value == NULL || CFGetTypeID(value) != CFStringGetTypeID()) {
		return;
	}
	NSString *s = (__bridge NSString *)value;
	if ([s length] > 0) {
		[out appendString:s];
		[out appendString:@"\n"];
	}
}

// Walks the AX tree collecting AXValue / AXTitle / AXDescription strings,
// one per line. Depth-capped to keep runaway web views bounded.
static void ax_walk(AXUIElementRef el, NSMutableString *out, int depth, int maxDepth) {
	if (depth > maxDepth) {
		return;
	}
	CFTypeRef value = ax_attr(el, kAXValueAttribute);
	CFTypeRef title = ax_attr(el, kAXTitleAttribute);
	CFTypeRef desc = ax_attr(el, kAXDescriptionAttribute);
	ax_append_string(out, value);
	ax_append_string(out, title);
	ax_append_string(out, desc);
	if (value) CFRelease(value);
	if (title) CFRelease(title);
	if (desc) CFRelease(desc);

	CFTypeRef children = ax_attr(el, kAXChildrenAttribute);
	if (children != NULL && CFGetTypeID(children) == CFArrayGetTypeID()) {
		CFArrayRef arr = (CFArrayRef)children;
		CFIndex n = CFArrayGetCount(arr);
		for (CFIndex i = 0; i < n; i++) {
			AXUIElementRef child = (AXUIElementRef)CFArrayGetValueAtIndex(arr, i);
			ax_walk(child, out, depth + 1, maxDepth);
		}
	}
	if (children) CFRelease(children);
}

static AXUIElementRef ax_focused_window(int pid) {
	AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
	if (app == NULL) {
		return NULL;
	}
	CFTypeRef window = ax_attr(app, kAXFocusedWindowAttribute);
	if (window == NULL) {
		// Fall back to the first window.
		CFTypeRef windows = ax_attr(app, kAXWindowsAttribute);
		if (windows != NULL && CFGetTypeID(windows) == CFArrayGetTypeID() &&
			CFArrayGetCount((CFArrayRef)windows) > 0) {
			window = CFArrayGetValueAtIndex((CFArrayRef)windows, 0);
			CFRetain(window);
		}
		if (windows) CFRelease(windows);
	}
	CFRelease(app);
	return (AXUIElementRef)window;
}

// Caller frees the returned string. NULL means no window could be resolved.
static char *ax_copy_text(int pid, int maxDepth) {
	AXUIElementRef window = ax_focused_window(pid);
	if (window == NULL) {
		return NULL;
	}
	NSMutableString *out = [NSMutableString stringWithCapacity:4096];
	ax_walk(window, out, 0, maxDepth);
	CFRelease(window);
	return strdup([out UTF8String]);
}

// control=1 resolves the focused UI element's frame, control=0 the focused
// window's frame. Returns 0 on success.
static int ax_focused_bounds(int pid, int control, int *x, int *y, int *w, int *h) {
	AXUIElementRef el = NULL;
	if (control) {
		AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
		if (app != NULL) {
			el = (AXUIElementRef)ax_attr(app, kAXFocusedUIElementAttribute);
			CFRelease(app);
		}
	} else {
		el = ax_focused_window(pid);
	}
	if (el == NULL) {
		return -1;
	}
	CFTypeRef posVal = ax_attr(el, kAXPositionAttribute);
	CFTypeRef sizeVal = ax_attr(el, kAXSizeAttribute);
	CFRelease(el);
	if (posVal == NULL || sizeVal == NULL) {
		if (posVal) CFRelease(posVal);
		if (sizeVal) CFRelease(sizeVal);
		return -1;
	}
	CGPoint pos;
	CGSize size;
	bool ok = AXValueGetValue((AXValueRef)posVal, kAXValueTypeCGPoint, &pos) &&
		AXValueGetValue((AXValueRef)sizeVal, kAXValueTypeCGSize, &size);
	CFRelease(posVal);
	CFRelease(sizeVal);
	if (!ok) {
		return -1;
	}
	*x = (int)pos.x;
	*y = (int)pos.y;
	*w = (int)size.width;
	*h = (int)size.height;
	return 0;
}

// Posts a scroll-wheel event: positive = up (reveals older history in
// chat views), negative = down.
static void ax_scroll(int amount) {
	CGEventRef ev = CGEventCreateScrollWheelEvent(NULL, kCGScrollEventUnitLine, 1, amount);
	if (ev != NULL) {
		CGEventPost(kCGHIDEventTap, ev);
		CFRelease(ev);
	}
}

// hide_from_dock sets the process activation policy to Accessory, removing
// the Dock icon and Task Switcher entry. Safe to call only once the Cocoa
// run loop is running.
static void hide_from_dock(void) {
	if ([NSApp isRunning]) {
		[NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
	}
}
*/
import "C"

import (
	"fmt"
	"log"
	"strings"
	"unsafe"
)

// darwinReader reads the frontmost application's AX tree.
type darwinReader struct{}

// newPlatformReader returns the macOS accessibility backend.
func newPlatformReader() accessibilityReader {
	return &darwinReader{}
}

func (d *darwinReader) Trusted() bool {
	return bool(C.ax_trusted())
}

func (d *darwinReader) FocusedTarget() (FocusedTarget, error) {
	pid := int(C.ax_frontmost_pid())
	if pid == 0 {
		return FocusedTarget{}, fmt.Errorf("accessibility: no frontmost application")
	}
	target := FocusedTarget{PID: pid, App: "Unknown", Handle: uintptr(pid)}
	if cname := C.ax_frontmost_app_name(); cname != nil {
		target.App = C.GoString(cname)
		C.free(unsafe.Pointer(cname))
	}
	var x, y, w, h C.int
	if C.ax_focused_bounds(C.int(pid), 0, &x, &y, &w, &h) == 0 {
		target.Bounds = Rect{X: int(x), Y: int(y), Width: int(w), Height: int(h)}
	}
	if C.ax_focused_bounds(C.int(pid), 1, &x, &y, &w, &h) == 0 {
		control := Rect{X: int(x), Y: int(y), Width: int(w), Height: int(h)}
		// A control frame outside the window frame means the AX element is
		// stale; keep only geometry the window actually contains.
		if target.Bounds.IsZero() || target.Bounds.Contains(control) {
			target.Control = control
		}
	}
	return target, nil
}

func (d *darwinReader) ReadLines(target FocusedTarget) ([]string, error) {
	if !d.Trusted() {
		return nil, ErrPermissionDenied
	}
	ctext := C.ax_copy_text(C.int(target.PID), C.int(maxTreeDepth))
	if ctext == nil {
		log.Printf("accessibility: no AX window for pid %d", target.PID)
		return nil, ErrUnsupported
	}
	defer C.free(unsafe.Pointer(ctext))
	text := C.GoString(ctext)
	if strings.TrimSpace(text) == "" {
		return nil, ErrUnsupported
	}
	return strings.Split(text, "\n"), nil
}

func (d *darwinReader) ScrollUp(amount int) error {
	C.ax_scroll(C.int(amount))
	return nil
}

// HideFromDock removes the app's Dock icon at runtime. No-op if called
// before the Cocoa run loop (e.g. in tests).
func HideFromDock() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("accessibility: HideFromDock skipped (no run loop): %v", r)
		}
	}()
	C.hide_from_dock()
}

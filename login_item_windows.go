//go:build windows

package main

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath  = `Software\Microsoft\Windows\CurrentVersion\Run`
	runKeyValue = "AutoReply"
)

// registryLoginItems registers the app under the per-user Run key.
type registryLoginItems struct{}

func newLoginItems() (loginItems, error) {
	return &registryLoginItems{}, nil
}

func (r *registryLoginItems) Enable(execPath string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("login item: open Run key: %w", err)
	}
	defer k.Close()
	if err := k.SetStringValue(runKeyValue, execPath); err != nil {
		return fmt.Errorf("login item: set value: %w", err)
	}
	return nil
}

func (r *registryLoginItems) Disable() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("login item: open Run key: %w", err)
	}
	defer k.Close()
	if err := k.DeleteValue(runKeyValue); err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("login item: delete value: %w", err)
	}
	return nil
}

func (r *registryLoginItems) IsEnabled() bool {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()
	_, _, err = k.GetStringValue(runKeyValue)
	return err == nil
}

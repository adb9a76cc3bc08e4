package uninstall

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Strategy removes a single file. The permanent strategy deletes
// outright; the trash strategy routes through the system trash where one
// exists.
type Strategy interface {
	Name() string
	Remove(path string) error
}

// Permanent deletes files without any recovery path beyond backups.
type Permanent struct{}

// Name implements Strategy.
func (Permanent) Name() string { return "permanent" }

// Remove deletes the file at path.
func (Permanent) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

// trashTimeout is the maximum time to wait for trash commands.
const trashTimeout = 30 * time.Second

// Trash moves files to the system trash.
// On macOS it uses Finder via AppleScript; on Linux, gio or trash-cli.
// When no trash facility is available it falls back to permanent delete.
type Trash struct{}

// Name implements Strategy.
func (Trash) Name() string { return "trash" }

// Remove moves the file at path to the system trash.
func (Trash) Remove(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return trashMacOS(path)
	case "linux":
		return trashLinux(path)
	default:
		return Permanent{}.Remove(path)
	}
}

func trashMacOS(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), trashTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return Permanent{}.Remove(path)
	}
	return nil
}

func trashLinux(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), trashTimeout)
	defer cancel()

	if gioPath, err := exec.LookPath("gio"); err == nil {
		cmd := exec.CommandContext(ctx, gioPath, "trash", path)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	if trashPath, err := exec.LookPath("trash-put"); err == nil {
		cmd := exec.CommandContext(ctx, trashPath, path)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	return Permanent{}.Remove(path)
}

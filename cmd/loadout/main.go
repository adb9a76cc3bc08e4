// Package main provides the entry point for the loadout CLI.
package main

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/loadout/pkg/loadout/logging"
)

// Exit codes, part of the CLI contract.
const (
	exitOK         = 0
	exitError      = 1
	exitPermission = 2
	exitInterrupt  = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	// An interrupt must leave either nothing committed or a fully
	// committed manifest; the commit ordering inside the packages
	// guarantees that, so here the signal just stops the command.
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)

	done := make(chan int, 1)
	go func() {
		defer logging.Close()
		if err := Execute(); err != nil {
			done <- exitCodeFor(err)
			return
		}
		done <- exitOK
	}()

	select {
	case code := <-done:
		return code
	case <-interrupted:
		_ = logging.Close()
		return exitInterrupt
	}
}

// exitCodeFor maps an error to the documented exit codes.
func exitCodeFor(err error) int {
	if errors.Is(err, fs.ErrPermission) {
		return exitPermission
	}
	return exitError
}

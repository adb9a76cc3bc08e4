package main

import (
	"errors"
	"testing"

	"github.com/jamesainslie/loadout/pkg/loadout/installer"
	"github.com/jamesainslie/loadout/pkg/loadout/repair"
)

func TestPrintRepairFailures(t *testing.T) {
	// A nil result arrives when repair fails before producing one,
	// for example when the manifest file cannot be read at all.
	printRepairFailures(nil)

	printRepairFailures(&repair.Result{
		Failed: []installer.FileError{
			{RelPath: "workflows/plan.md", Err: errors.New("permission denied")},
		},
	})
}

package ui

import (
	"testing"

	"github.com/fenilsonani/diskwise/internal/progress"
)

func TestLiveProgressDisabledIgnoresEvents(t *testing.T) {
	lp := NewLiveProgress()
	lp.SetEnabled(false)

	lp.Start()
	lp.UpdateScan(progress.ScanEvent{Stage: progress.StageScanningFile, Current: `C:\Temp\a.tmp`, FilesSeen: 3})
	lp.UpdateClean(progress.CleanEvent{CurrentPath: `C:\Temp\a.tmp`, Done: 1, Total: 2})
	lp.Finish()

	if lp.stage != "" || lp.filesSeen != 0 {
		t.Errorf("disabled progress recorded state: stage=%q filesSeen=%d", lp.stage, lp.filesSeen)
	}
}

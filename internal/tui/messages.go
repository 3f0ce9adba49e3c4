package tui

import (
	"github.com/MKhiriev/go-offline-sync/models"
)

type statusLoadedMsg struct {
	status models.EngineStatus
	err    error
}

type syncDoneMsg struct {
	push models.PushSummary
	pull models.PullSummary
	err  error
}

type refreshTickMsg struct{}

type clearStatusMsg struct{}

package tui

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
	tea "github.com/charmbracelet/bubbletea"
)

// TUI is the operator console of the sync client.
type TUI struct {
	engine    service.SyncEngine
	buildInfo models.AppBuildInfo
	logger    *logger.Logger
}

func New(engine service.SyncEngine, buildInfo models.AppBuildInfo, logger *logger.Logger) *TUI {
	return &TUI{engine: engine, buildInfo: buildInfo, logger: logger}
}

// Console shows the engine status until the user quits. The engine must be
// open.
func (t *TUI) Console(ctx context.Context) error {
	_, err := tea.NewProgram(newConsoleModel(ctx, t.engine, t.buildInfo), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		t.logger.Err(err).Str("func", "*TUI.Console").Msg("console stopped with error")
		return err
	}
	return nil
}

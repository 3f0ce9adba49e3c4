package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	refreshInterval = 2 * time.Second
	statusTTL       = 3 * time.Second
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

type consoleModel struct {
	ctx       context.Context
	engine    service.SyncEngine
	buildInfo models.AppBuildInfo

	status models.EngineStatus
	loaded bool

	sync   syncModel
	info   string
	errMsg string
	fatal  bool

	showBuildInfo bool
}

func newConsoleModel(ctx context.Context, engine service.SyncEngine, buildInfo models.AppBuildInfo) consoleModel {
	return consoleModel{
		ctx:       ctx,
		engine:    engine,
		buildInfo: buildInfo,
		sync:      newSyncModel(),
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(m.cmdLoadStatus(), cmdRefreshTick())
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusLoadedMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Ошибка чтения статуса: %v", msg.err)
			return m, nil
		}
		m.status = msg.status
		m.loaded = true
		return m, nil

	case syncDoneMsg:
		m.sync.running = false
		if msg.err != nil {
			m.errMsg = syncErrorMessage(msg.err)
			m.fatal = errors.Is(msg.err, service.ErrHealingFailed)
			return m, m.cmdLoadStatus()
		}
		m.errMsg, m.fatal = "", false
		m.info = fmt.Sprintf("Синхронизация завершена: отправлено %d, конфликтов %d, получено строк %d",
			msg.push.Applied, msg.push.Conflicts, msg.pull.RowsApplied)
		return m, tea.Batch(m.cmdLoadStatus(), cmdClearStatus())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sync, cmd = m.sync.update(msg)
		return m, cmd

	case refreshTickMsg:
		return m, tea.Batch(m.cmdLoadStatus(), cmdRefreshTick())

	case clearStatusMsg:
		m.info = ""
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m consoleModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.quit) {
		return m, tea.Quit
	}

	if m.showBuildInfo {
		if key.Matches(msg, keys.close) {
			m.showBuildInfo = false
		}
		return m, nil
	}
	if m.errMsg != "" && key.Matches(msg, keys.close) {
		m.errMsg, m.fatal = "", false
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.sync):
		if m.sync.running {
			return m, nil
		}
		m.errMsg = ""
		m.info = ""
		var cmd tea.Cmd
		m.sync, cmd = m.sync.start()
		return m, tea.Batch(cmd, m.cmdSync())

	case key.Matches(msg, keys.copy):
		if m.status.DeviceID == "" {
			m.info = "Нечего копировать"
			return m, cmdClearStatus()
		}
		if err := writeClipboard(m.status.DeviceID); err != nil {
			m.errMsg = fmt.Sprintf("Ошибка копирования: %v", err)
			return m, nil
		}
		m.info = "ID устройства скопирован"
		return m, cmdClearStatus()

	case key.Matches(msg, keys.refresh):
		return m, m.cmdLoadStatus()

	case key.Matches(msg, keys.buildInfo):
		m.showBuildInfo = true
	}

	return m, nil
}

func (m consoleModel) View() string {
	if m.showBuildInfo {
		return appStyle.Render(renderBuildInfoWindow(m.buildInfo, m.status))
	}

	page := renderPage("КОНСОЛЬ СИНХРОНИЗАЦИИ", m.renderStatus(),
		"s: синхронизировать  c: копировать ID устройства  r: обновить  v: о программе")

	var b strings.Builder
	b.WriteString(page)
	if m.sync.running {
		b.WriteString("\n\n  ")
		b.WriteString(m.sync.View())
	}
	if m.info != "" {
		b.WriteString("\n\n  ")
		b.WriteString(m.info)
	}
	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(errorOverlayModel{message: m.errMsg, fatal: m.fatal}.View())
	}

	return appStyle.Render(b.String())
}

func (m consoleModel) renderStatus() string {
	if !m.loaded {
		return "Загрузка..."
	}
	s := m.status

	var b strings.Builder
	fmt.Fprintf(&b, "Устройство:     %s\n", valueOrDash(s.DeviceID))
	fmt.Fprintf(&b, "Схема:          %s\n", fitText(valueOrDash(s.Fingerprint), 16))
	fmt.Fprintf(&b, "Состояние базы: %s\n", healStateStyle(s.HealState).Render(valueOrDash(string(s.HealState))))
	fmt.Fprintf(&b, "Последняя синхронизация: %s\n", timeOrDash(s.LastSyncAt))
	if s.LastSyncError != "" {
		fmt.Fprintf(&b, "Последняя ошибка: %s\n", fitText(s.LastSyncError, 60))
	}
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ТАБЛИЦА\tОЧЕРЕДЬ\tКУРСОР\tПОЛУЧЕНО")
	for _, t := range s.Tables {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", t.Table, t.PendingChanges, valueOrDash(t.Cursor), timeOrDash(t.LastPulledAt))
	}
	tw.Flush()

	return strings.TrimRight(b.String(), "\n")
}

func (m consoleModel) cmdLoadStatus() tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		status, err := engine.Status(ctx)
		return statusLoadedMsg{status: status, err: err}
	}
}

func (m consoleModel) cmdSync() tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		push, pull, err := engine.Sync(ctx)
		return syncDoneMsg{push: push, pull: pull, err: err}
	}
}

func cmdRefreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func cmdClearStatus() tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

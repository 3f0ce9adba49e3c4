package tui

// errorOverlayModel boxes the last error. A fatal one (healing failed) gets
// a red border since sync stays halted until the operator runs heal.
type errorOverlayModel struct {
	message string
	fatal   bool
}

func (m errorOverlayModel) View() string {
	title, box := "Ошибка", overlayBoxStyle
	if m.fatal {
		title, box = "Синхронизация остановлена", fatalBoxStyle
	}
	return box.Render(titleStyle.Render(title) + "\n\n" + m.message + "\n\n" + helpStyle.Render("esc: закрыть"))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"fmt"

	"github.com/MKhiriev/go-offline-sync/models"
)

func renderBuildInfoWindow(info models.AppBuildInfo, status models.EngineStatus) string {
	data := fmt.Sprintf("Приложение: go-offline-sync\nВерсия:     %s\nДата:       %s\nКоммит:     %s\n\nСхема:      %s",
		info.BuildVersion(), info.BuildDate(), info.BuildCommit(), valueOrDash(status.Fingerprint))

	return renderPage("ИНФОРМАЦИЯ О ПРОГРАММЕ", data, "esc: назад")
}

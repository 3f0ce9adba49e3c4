// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/MKhiriev/go-offline-sync/internal/service"
)

const msgOffline = "синхронизация не выполнена. Отсутствует сеть или Сервер недоступен"

// syncErrorMessage renders a sync failure for the status line.
func syncErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		return "Синхронизация уже выполняется"
	case errors.Is(err, service.ErrHealingFailed):
		return "Локальная база повреждена, синхронизация остановлена. Выполните heal"
	case service.IsTransient(err), isNetworkError(err):
		return msgOffline
	case errors.Is(err, service.ErrChangeRejected):
		return fmt.Sprintf("Сервер отклонил изменения: %v", err)
	}

	return fmt.Sprintf("Ошибка синхронизации: %v", err)
}

// isNetworkError covers failures that escaped the adapter unclassified:
// dial, DNS and timeout errors.
func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}

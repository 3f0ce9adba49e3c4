package http

import (
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

type Handler struct {
	services *service.Services

	// verifyHash enables the integrity check of pushed batches. The hasher
	// pool in utils must be initialized with the shared key.
	verifyHash bool

	logger *logger.Logger
}

func NewHandler(services *service.Services, verifyHash bool, logger *logger.Logger) *Handler {
	logger.Info().Bool("verify_hash", verifyHash).Msg("http handler created")
	return &Handler{
		services:   services,
		verifyHash: verifyHash,
		logger:     logger,
	}
}

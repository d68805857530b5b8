package http

import (
	"github.com/notifica-api/internal/application/audit"
	"github.com/notifica-api/internal/application/notification"
	jwtinfra "github.com/notifica-api/internal/infrastructure/jwt"
)

// Deps holds everything the router needs. Services are constructed in main
// because the scheduling processor shares them with the HTTP surface.
type Deps struct {
	NotificationSvc notification.Service
	AuditSvc        audit.Service
	JWTProvider     *jwtinfra.Provider
}

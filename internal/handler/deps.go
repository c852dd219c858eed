package handler

import (
	"github.com/rs/zerolog"

	"rosterhub/backend/internal/hub"
	"rosterhub/backend/internal/presence"
	"rosterhub/backend/internal/upload"
)

// Shared collaborators, wired once from main. The database handle stays the
// package-global in internal/database, matching the rest of the app.
var (
	Bus     *hub.Hub
	Broker  presence.Broker
	Uploads *upload.Service
	Log     zerolog.Logger
)

// Setup injects the handler package's collaborators.
func Setup(bus *hub.Hub, broker presence.Broker, uploads *upload.Service, log zerolog.Logger) {
	Bus = bus
	Broker = broker
	Uploads = uploads
	Log = log
}

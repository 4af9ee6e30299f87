package http

import (
	"github.com/railvoice/railvoice/internal/announce"
	"github.com/railvoice/railvoice/internal/docstore"
	jwtinfra "github.com/railvoice/railvoice/internal/infrastructure/jwt"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	// Docs is the partition document store the announcement service runs on.
	Docs *docstore.Store
	// Pusher fans emergency announcements out to mobile push. Nil disables it.
	Pusher announce.Pusher
	// JWTProvider verifies announcer bearer tokens. Nil disables auth, which
	// is only acceptable in local development.
	JWTProvider *jwtinfra.Provider
}

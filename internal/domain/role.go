package domain

// Roles carried in the announcer token issued by the account service.
const (
	RoleAdmin     = "admin"
	RoleAnnouncer = "announcer"
)

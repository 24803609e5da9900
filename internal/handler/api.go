package handler

// API bundles every handler the servers mount.
type API struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	Activities *ActivityHandler
	Entries    *EntryHandler
}

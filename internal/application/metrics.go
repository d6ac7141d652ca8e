package application

import "expvar"

// Exposed on /api/debug/vars when debug metrics are enabled.
var (
	accountsCreated = expvar.NewInt("accounts_created")
	accountsUpdated = expvar.NewInt("accounts_updated")
)

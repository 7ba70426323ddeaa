// Package docs payments-portal API
//
// @title  payments-portal API
// @version 0.1.0
// @description Checkout backend: sanitized payment intents, results and a live status stream.
// @host      localhost:8080
// @BasePath /
// @schemes http https
package docs

import (
	_ "payments-portal/cmd/server/handlers/httperr"
	_ "payments-portal/internal/services/payments"
)

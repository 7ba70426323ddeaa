// Package ctxkeys holds the fiber Locals keys shared between the websocket
// upgrade handler and the stream handler.
package ctxkeys

const (
	PaymentIDKey = "paymentID"
	ParentCtxKey = "parentCtx"
)

// Package notifier delivers homework status messages to a chat.
//
// Delivery is synchronous and at-most-once per call: a failure is returned as
// *DeliveryError and nothing is queued for resend. The caller decides whether
// the same message is attempted again on a later cycle.
//
// # Transport
//
// The service delegates delivery to a transport.Sender (e.g. the Telegram
// adapter) and applies a token-bucket rate limit and a per-send timeout in
// front of it.
//
// # History
//
// For debugging and operator visibility, the service keeps a small in-memory
// history of recent delivery attempts.
package notifier

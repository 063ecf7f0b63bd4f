// Package transport provides the resilient HTTP client used for all calls
// to the managed applications.
//
// The client retries only when no HTTP response was received at all:
// connection establishment failures and read timeouts. A received
// response, including 5xx, is returned to the caller untouched, because
// a server that answered is not transiently unreachable and blindly
// repeating a mutating POST or PUT could double-apply a create.
//
// Retries use a fixed inter-attempt delay rather than exponential backoff;
// the stack's calls are slow and infrequent, and a handful of evenly
// spaced attempts matches how long a restarting container actually takes
// to come back.
package transport

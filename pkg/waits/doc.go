// Package waits implements the input wait registry: single-resolution requests
// for user input that race a timer, a cancel keyword and the input itself.
//
// Whichever path resolves a wait first removes it from the registry under the
// registry lock; every later attempt finds nothing and is a silent no-op.
package waits

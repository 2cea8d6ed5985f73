// Package sanitizer normalizes free text submitted through the API before it
// is validated and stored.
//
// All functions are idempotent and never fail: invalid input collapses to an
// empty value rather than an error.
package sanitizer

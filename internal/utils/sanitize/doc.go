// Package sanitize turns untrusted input into values that are safe to store,
// render or forward.
//
// Strings lose every tag and attribute (String, Text); numbers are coerced
// into finite float64 values with a 0 fallback (Number, NumberOr). Free text
// that is persisted additionally goes through Clean. All functions are pure
// and safe for concurrent use; none of them returns an error.
package sanitize

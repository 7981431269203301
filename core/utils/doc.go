// Package utils provides type conversion helpers for the wire boundary.
//
// The Mailchimp API models merge fields as a loosely-typed JSON object whose
// values arrive as strings, numbers, or null depending on how a field was
// last written. These helpers coerce those values into the string form the
// sync core works with, without scattering type switches across the adapter.
package utils

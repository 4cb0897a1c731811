// Package utils holds small shared helpers: content hashing for entity tags
// and input limits for identifiers and upstream payloads.
package utils

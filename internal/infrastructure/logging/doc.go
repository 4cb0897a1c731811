// Package logging wraps zap. Production builds write JSON, development
// builds write coloured console lines. Field helpers keep the keys used for
// service, run and request ids consistent across packages.
package logging

// Package ident implements the namespaced identifier scheme used to route
// library ids back to the catalog provider that owns them. An identifier has
// the form "<namespace>:<local-id>"; the namespace names a registered
// provider and the local id is an opaque string under that provider's
// control.
package ident

import (
	"errors"
	"strings"
)

// Separator splits the namespace from the provider-local id.
const Separator = ":"

// ErrMalformedIdentifier is returned when an identifier has no namespace
// separator and therefore cannot be routed.
var ErrMalformedIdentifier = errors.New("malformed identifier: missing namespace separator")

// Compose builds a namespaced identifier from a namespace and a
// provider-local id.
func Compose(namespace, localID string) string {
	return namespace + Separator + localID
}

// Namespace returns the namespace of id: everything before the first
// separator. Local ids are opaque and may themselves contain separators, so
// only the first one counts.
func Namespace(id string) (string, error) {
	namespace, _, found := strings.Cut(id, Separator)
	if !found {
		return "", ErrMalformedIdentifier
	}
	return namespace, nil
}

// StripPrefix removes the literal "<namespace>:" prefix from id, yielding the
// provider-local id. Callers must only pass ids whose Namespace matched the
// given namespace; ids from other namespaces are returned unchanged, which is
// never what a router wants.
func StripPrefix(id, namespace string) string {
	return strings.TrimPrefix(id, namespace+Separator)
}

// Package internal groups helpers that are private to suvclient.
//
// # Sub-packages
//
//   - notify: async toast dispatch (Dispatcher + Sink implementations)
//   - suvtest: in-process fake suv deployment used by tests and examples
//
// # What this package must NOT do
//
//   - Export types that appear in the public suvclient API other than through
//     aliases declared in the root package.
//   - Be imported by any package outside the suvclient module.
package internal

// Package error provides the structured error type used across koi.
//
// Package: error
// Title: koi Error Handling
// Description: Structured errors with codes, severity, operation names and
//              free-form details. Engine packages return plain sentinel errors
//              where callers match with errors.Is; adapters wrap those with
//              this type so logs and JSON responses carry a stable code.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-16
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-16 v0.2.0: Reduced to the koi code set, added errors.Is support
//
// Usage:
//
//	import mdwerror "github.com/msto63/koi/foundation/core/error"
//
//	err := mdwerror.Wrap(ioErr, "failed to read input").
//		WithCode(mdwerror.CodeIOError).
//		WithOperation("input.ReadFile").
//		WithDetail("path", path)
//
//	if mdwerror.HasCode(err, mdwerror.CodeIOError) {
//		// ...
//	}
package error

// File: doc.go
// Title: KoiLang Command Model
// Description: Immutable command values produced by the parser and the
//              two-variant Parameter type carried by them.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial command model

/*
Package command defines the values the koi parser hands to callers.

A Command is a name plus an ordered list of Parameters. A Parameter is
exactly one of two variants:

  - Basic: a single raw token, e.g. `world`, `2` or `"quoted text"`
  - Composite: a keyed value written `name(value)`

Callers ask which variant is present with Kind, IsBasic or IsComposite and
then extract the payload. AsBasic and AsComposite are the comma-ok forms.
Value and NameValue panic with a *VariantError when called on the wrong
variant, the same contract reflect.Value uses for kind mismatches.

Parameters keep their source text verbatim. Typed views (integers, floats,
quoted strings, lists and dictionaries inside composites) are available
through ParseValue, Parameter.Typed and Parameter.Composite.
*/
package command

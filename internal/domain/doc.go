// Package domain defines the core business types for the customer console.
//
// Types in this package are pure value objects with no behavior, no database
// dependencies, and no HTTP concerns. They are the shared language between
// handlers, services, and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation and CSV row methods are allowed (pure functions on the type)
//   - Constants and enums belong here
//
// Every tenant-owned record carries a numeric primary key that never leaves
// the server and a public *_uid that handlers accept in URLs.
package domain

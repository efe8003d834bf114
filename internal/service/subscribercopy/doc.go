// Package subscribercopy copies subscribers from one list into another in
// client-driven steps.
//
// The client posts page 1, 2, 3 ... until the response says finished. Each
// step copies one window of the source list inside a single transaction,
// skips addresses the target already has, and stops early once the
// customer's subscriber quota is used up. Running totals survive between
// steps in Redis, and a lock on the target list keeps two steps from
// writing into it at the same time.
package subscribercopy

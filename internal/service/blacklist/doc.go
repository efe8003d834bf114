// Package blacklist manages the per-customer IP blacklist consulted when
// subscriptions arrive from list forms.
package blacklist

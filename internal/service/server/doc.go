// Package server manages the mailbox servers a customer connects to the
// platform: email-box monitors, which act on subscribers when incoming
// messages match conditions, and feedback-loop servers, which receive
// complaint reports. Both kinds share storage shape and lifecycle.
//
// Locked servers are managed by the operator and refuse update, delete,
// enable and disable. Hidden servers are invisible to customers.
package server

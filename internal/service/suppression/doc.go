// Package suppression implements customer suppression lists.
//
// A suppression list holds addresses that never receive the customer's
// campaigns. Addresses are stored lower-cased and are unique per list.
// Every change to a list's addresses touches the list's last_updated so
// senders can cache the list and refresh only when it moved.
//
// Large files can be queued: the upload is kept in a FileStore and an
// import job row is created; the suppression-import command claims pending
// jobs and runs them through the same row handler as the synchronous import.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package suppression

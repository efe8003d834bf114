// Package campaigngroup implements the campaign group service.
//
// Groups are a customer's folders for campaigns. Deleting a group detaches
// its campaigns; it never deletes them.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package campaigngroup

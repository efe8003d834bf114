// Package listpage manages the public pages and embeddable forms of a list.
//
// Page types are defined in code with a default Liquid template. A list
// only stores content for the types it customizes; saving empty content
// reverts a type to its default. Saved content must parse and must keep
// the variables the page needs to work, such as the field inputs and the
// submit button of a subscribe form.
package listpage

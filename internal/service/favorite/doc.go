// Package favorite keeps the console routes a customer bookmarked. Adding
// a route that is already a favorite removes it, so one button toggles.
package favorite

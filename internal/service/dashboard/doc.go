// Package dashboard builds the customer dashboard widgets: the glance
// counters, the activity timeline, the latest campaigns, subscriber growth
// and the most used favorite pages.
//
// Glance counters are cached in Redis per customer and dropped whenever a
// controller saves or deletes a record.
package dashboard

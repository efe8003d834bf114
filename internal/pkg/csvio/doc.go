// Package csvio streams records to and from CSV for the console's export
// and import actions.
//
// Exports pull rows lazily, one database page at a time, through Paginate
// and write them with Writer, whose header comes from the first record.
// Imports normalize the header row, check required columns and collect
// per-row failures without aborting the batch.
package csvio

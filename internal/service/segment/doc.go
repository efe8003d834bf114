// Package segment implements list segments and survey segments.
//
// A segment is a named set of conditions over field values. Matching runs
// in Go over pages of subscribers or responders, so the same evaluator
// serves counting, exporting and survey segments.
package segment

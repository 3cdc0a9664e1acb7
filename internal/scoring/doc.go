// Package scoring turns RawFacts into a ScoreBreakdown.
//
// Scoring is a pure function: no I/O, no clock, no shared mutable state.
// Rules only ever add points. Every rule appends exactly one explanatory
// line to its category, earned or not, and each category is capped at its
// maximum:
//
//	Primary listing      80  claimed 20, recency 10, replies 10, photos 10,
//	                         hours 10, rating 10, contact 5+5
//	Secondary directory  10
//	Website              10
//
// Status tier: success >= 80, warning 50..79, danger < 50.
package scoring

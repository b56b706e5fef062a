// Package model defines the values that flow through the transfer pipeline:
// media references extracted from source records, the destination keys they
// map to, per-asset fetch results and the counters folded into a run report.
package model

// Package report renders the summary of a migration run.
//
// Three formats are supported: a plain text summary for terminals and log
// files, JSON for tooling, and Markdown for sharing in tickets or chat.
package report

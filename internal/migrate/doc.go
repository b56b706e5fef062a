// Package migrate drives a migration run page by page.
//
// For every page of source records the orchestrator extracts media
// references, drops those already present in the existence index, downloads
// the rest concurrently and hands the successful downloads to the commit
// writer. Per-page counts are folded into the run report. Pages are processed
// one at a time with a pause between them.
package migrate

// Package progress tracks migration progress.
//
// Reporter prints live download progress to a terminal while pages are being
// fetched. Report is the final run summary produced by the orchestrator.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Workers: concurrency,
//	    Output:  os.Stderr,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Pass reporter as the scheduler's observer.
//
// # Output Format
//
//	[imgupload] Downloading media | Workers: 10
//	[imgupload] Assets: 412 / 500 | Speed: 3.10 MB/s | Elapsed: 1m 12s
//	[imgupload] 398 downloaded | 14 failed | 10 in-flight | 78 queued
package progress

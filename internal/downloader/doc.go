// Package downloader fans media downloads out under a hard concurrency ceiling.
//
// The Scheduler admits at most Concurrency fetches at a time using
// errgroup.Group.SetLimit; further submissions wait for a free slot. Each
// worker runs the fetcher's own retry loop and reports exactly one terminal
// result into a pre-sized slice, so the caller gets one FetchResult per input
// reference and no locking is needed.
//
// # Usage
//
//	sched := downloader.New(httpClient, downloader.Options{
//	    Concurrency: 10,
//	    Progress:    reporter, // optional
//	})
//	results := sched.FetchAll(ctx, refs)
//	for _, r := range results {
//	    if !r.OK() {
//	        // absent: r.Err
//	    }
//	}
package downloader

// Package commit writes downloaded assets to the destination store.
//
// Commits are strictly sequential: the store's write path is the rate-limited,
// cost-sensitive phase of the migration. Each asset goes through a two-phase
// duplicate check before it is written. The local existence index is consulted
// first, at no network cost; on a miss the store itself is checked, which
// catches objects written by someone else after the index was built.
package commit

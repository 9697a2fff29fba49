// Package gallery holds the client-side view of what is pinned.
//
// # Overview
//
// The remote pinning service is only eventually consistent: after an unpin
// is acknowledged, list responses may keep reporting the content for a
// while. The Store keeps the visible list consistent by remembering every
// content id deleted during the session (its tombstones) and filtering them
// out of every list result at the moment the result is applied.
//
// # State Machine
//
// All changes go through Reduce, a pure function from (State, Event) to the
// next State:
//
//	RefreshStarted   Pending++
//	Refreshed        Items = fetched − Tombstones (deduplicated), Pending--
//	RefreshFailed    Items = nil, Message set, Pending--
//	RefreshCanceled  Pending--
//	DeleteSucceeded  Tombstones += id, Items -= id
//	UploadSucceeded  notice only
//	UploadFailed     notice only
//	DeleteFailed     notice only
//	TokenFetched     Authenticated = true
//	LoggedOut        Items = nil, Authenticated = false
//
// Tombstones are never removed, so once an id is deleted no later refresh
// can bring it back, whatever order responses arrive in.
//
// # Concurrency
//
// Store.Dispatch applies events under a write lock, so concurrent refreshes
// and deletions are applied in completion order. Readers get deep copies
// from Snapshot, or subscribe to a latest-wins channel with Subscribe.
//
// # Failure Policy
//
// A failed refresh clears the visible items rather than keeping a stale
// view, and records a message for the status line ("authentication
// required" when no token could be obtained). Upload and delete failures
// only set a notice; they never change Items or Tombstones.
package gallery

// Package app is pinwall's composition root.
//
// Run loads configuration, opens the log file, and wires the components:
//
//  1. pinning.Client talks to the pinning service
//  2. auth.Manager caches the bearer token and coalesces session fetches;
//     the client pulls tokens from it and the manager pulls sessions from
//     the client
//  3. gallery.Store owns the gallery state and its tombstones
//  4. the poller refreshes the store in the background, backing off while
//     refreshes fail
//  5. upload and deletion coordinators and the gateway resolver are handed
//     to the UI, which blocks until the user quits or ctx is cancelled
//
// # Components
//
//   - app.go: Run and dependency wiring
//   - poller.go: background refresh loop with exponential backoff
package app

// Package ui implements pinwall's terminal interface with Bubble Tea.
//
// The model subscribes to the gallery store and re-renders on every published
// state; it never mutates gallery state itself. User actions run as tea.Cmds
// against the upload and deletion coordinators, whose outcomes flow back
// through the store.
//
// # Views
//
//   - Gallery: table of pinned content (CID, version, age, gateway host) with
//     a detail pane listing every gateway candidate for the selection.
//   - Logs: tail of pinwall's own log file, colorized by level.
//
// # Gateways
//
// Each newly seen item is probed once through gateway.Settle, which advances
// the item's attempt on every failed HEAD until a gateway answers or the
// placeholder is reached. n advances the selection by hand; p probes again.
//
// # Modals
//
// Delete asks for confirmation first; upload collects a local path. Both are
// Modal values that hand their result back as a message.
package ui

// Package logtail reads the tail of pinwall's log file and colorizes it for
// the log view.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// O(maxLines) regardless of file size. A missing file is not an error; it
// yields no lines.
//
// Parse understands the console format written by internal/logging:
//
//	2025-10-08 21:01:05 INF upload acknowledged content_id=Qm.. file=a.png
//
// and Palette renders the parts with lipgloss styles. Lines that do not
// parse (continuations, panics) are returned unchanged.
package logtail

// Package ui renders the countdown watch view in the terminal.
//
// The reconciler owns the tick loop; its hooks feed tick and expiry messages
// into the Bubble Tea program, which only renders and dispatches key actions.
package ui

// Package ui implements the interactive vibe wizard using bubbletea's Elm architecture.
//
// The (view) [Model] renders whatever step the [wizard.Controller] is in:
//  1. Destination, view and mood pickers with a step indicator, free-text entry and an aspect toggle
//  2. A generating screen with a spinner and the current generation phase
//  3. A result screen with title suggestions, an editable title, palette swatches, the image prompt,
//     a watermark toggle, cover export and clipboard copy
//
// A settings modal (API key entry, key page, connection test, billing docs) can be opened from any
// step and is opened automatically when generation is blocked by a missing or rejected key.
//
// Generation runs on a goroutine; progress updates flow through a channel and arrive as messages, and the
// outcome is handed back to the controller, which discards it when the wizard was reset meanwhile.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui

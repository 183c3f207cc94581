// Package tasks runs vibe generation with real-time progress reporting.
//
// # Core Operations
//
//  1. [VibeEngine.Run] : one generation batch for a complete selection
//     - Asks for a palette for the mood
//     - Requests titles and the thumbnail concurrently, the thumbnail lit by the palette
//     - Returns a single [models.GeneratedResult] or an error, never a partial result
//
//  2. [VibeEngine.BulkGenerate] : many selections through a rate-limited worker pool
//     - Runs each selection through [VibeEngine.Run]
//     - Renders and exports each cover, optionally saving it to history
//     - Writes a JSON manifest summarizing the batch
//
// # Progress Reporting
//
// Both operations accept an optional channel of [ProgressUpdate].
// Updates use select with default, so a slow or absent reader never blocks generation.
package tasks

// Package repositories implements SQLite persistence for generated vibes and settings.
//
// Key Implementations:
//   - [VibeRepository] : generation history with soft deletes and filtered listing
//   - [SettingsRepository] : key-value settings; satisfies credentials.Store for the saved API key
//
// Sequence numbers provide stable, human-readable ordering (e.g., vibe #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

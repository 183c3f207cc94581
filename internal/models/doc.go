// Package models defines domain entities and persistence interfaces for E-MusicVibe.
//
// The package contains two categories of types:
//
// 1. Value types that flow through the wizard and the generation API
//   - [VibeOption] : A selectable destination, view or mood card (predefined or custom)
//   - [Selection] : The in-progress choice, with optional slots and an [AspectRatio]
//   - [CompleteSelection] : A selection with every slot filled, the only input generation accepts
//   - [GeneratedResult] : Titles, palette, thumbnail and prompt produced by one generation batch
//
// 2. Persistent entities
//   - [Vibe] : A saved generation result with the selection that produced it
//
// Persistent entities implement [Record] and are stored through a [Repository].
// The [Repository] interface defines standard CRUD operations for database access.
package models

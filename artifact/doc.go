// Package artifact contains concrete implementations of core.ArtifactService.
//
// The canonical ArtifactService interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. Implementation
// packages like this one (in-memory, cloud object stores, databases, etc.)
// provide storage backends that can be swapped without touching calling code.
//
// Artifacts are versioned: every save of an existing filename appends a new
// version rather than overwriting, and loads may address a specific version
// or the latest.
package artifact

// Package memory contains concrete core.MemoryService implementations. The
// service interface and MemoryEntry type reside in the core package; depend
// on core.MemoryService in calling code and select an implementation (like
// the in-memory service below) at wiring time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (vector databases, embedding indexes, etc.) to be added without
// introducing dependency cycles.
package memory

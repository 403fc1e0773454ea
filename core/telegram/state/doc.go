// Package state keeps per-user conversation sessions in memory.
// Sessions are serialised per user through Manager.Acquire; different users proceed in parallel.
package state

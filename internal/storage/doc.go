// Package storage persists the history of computed plans. It ships two
// drivers behind the Store interface: a JSONL file journal (default) and
// an optional SQLite backend compiled in with the "sqlite" build tag.
package storage

/*
Package compilelog keeps a history of compiled files in a SQLite database.

A Store implements runesmith.Recorder, so handing it to runesmith.WithRecorder
persists every compile-map entry as it is produced. Unlike the in-memory
compile map, which only holds the latest entry per file and is cleared between
builds, the store keeps every entry until it is pruned.

The package only uses database/sql; the caller picks and registers the SQLite
driver.
*/
package compilelog

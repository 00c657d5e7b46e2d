// Package source loads task records into a registry.
//
// Three sources are supported and compose into one registry, later sources
// overriding earlier ones per (client, task) key:
//   - INI: one section per task, named "Client.<client>.<task>"
//   - CSV: a tabular export with Client, TaskName, Schedule, ... columns
//   - SQLite: a table with the same columns as the CSV export
package source

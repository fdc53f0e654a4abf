// Package ui implements the interactive book browser using bubbletea's Elm architecture.
//
// The TUI has one main screen with a debounced search input. With an empty
// query it shows the home feed, whose category rows stream in from
// [tasks.HomeLoader] over a progress channel. With a query it shows a page of
// results that can be sorted and paged. Selecting a book opens a detail view
// whose description, web info and web reviews load independently; an AI
// summary is generated on demand.
//
// Browsing state lives in [Controller], which performs no I/O, so the
// transitions are testable without a terminal. [Model] wires the controller to
// the catalog, the assistant, the local stores and the key bindings.
package ui

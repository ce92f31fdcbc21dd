// Package links turns article bodies into weighted Pages.
//
// Extraction has three stages: a Collector lists the raw href values of an
// HTML body in document order, a Policy decides which of them are internal
// article links and normalizes them to archive paths, and Extract interns
// the surviving targets and weights them by position.
//
// Which hrefs count as internal differs between archive generations, so
// the exclusion rules are a Policy value that can be loaded from YAML:
//
//	exclude_schemes: true
//	exclude_fragments: true
//	exclude_parent_relative: true
//	exclude_prefixes: ["-/", "I/", "_assets_/"]
//	strip_fragment: true
//	strip_query: true
//	trim_dot_slash: true
//	unescape: true
package links

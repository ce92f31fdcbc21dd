// Package model defines the core types of the link graph.
//
//   - Key: dense identifier assigned to an article path by the interner
//   - Page: the ordered, de-duplicated outgoing links of one article
//   - PathInfo: a search result with its cumulative distance and path
package model

// Package search runs uniform-cost (Dijkstra) searches over the link
// graph.
//
// The cost of following the link to L on page P is weight(L in P) + 1, so
// every edge costs more than one and a distance bound also bounds the
// number of hops. Traverse is the single traversal primitive: a lazy
// sequence of finalized nodes in non-decreasing distance order. ShortestPath
// stops pulling as soon as it sees its target; ClosestTitles drains the
// sequence and samples from it.
package search

// Package engine implements the fork engine of the document graph.
//
// A fork is an ordinary document whose last content group holds a single
// Digest labeled "forked_from" that equals the parent's hash. Edges are
// plain data, so the parent link is part of what the child hashes.
//
// RECONSTRUCTION:
//
// Reconstruct walks back-edges from a document toward its root and
// overlays each descendant's data groups onto its ancestor's:
//  1. The edge of a document is found in its last group: the first Digest
//     there that resolves to a stored document. That group is the edge
//     group and is not merged as data.
//  2. Starting from the root, each descendant overlays the effective
//     groups index by index. Within group j, the k-th occurrence of label
//     L replaces the k-th occurrence of L; otherwise the content is
//     appended. Extra groups are appended.
//  3. The leaf's edge group, if any, is appended last.
//
// CRITICAL PATTERNS:
//
// Bounded walks:
// Edges are caller-supplied data and cannot be trusted to form a DAG.
// Every walk is bounded by max_depth and tracks visited hashes; exceeding
// the bound or revisiting a hash fails with RECURSION_DEPTH_EXCEEDED.
//
// Diff-only storage is caller discipline:
// Fork stores exactly the groups it is given plus the edge. Diff and
// ForkDiff compute a minimal overlay for callers that want one.
package engine

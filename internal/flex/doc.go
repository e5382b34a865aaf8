// Package flex provides the typed value model of the document graph.
//
// A document is an ordered sequence of content groups; a content group is
// an ordered sequence of labeled values; a value is exactly one of six
// variants (Identifier, Text, Quantity, Timestamp, Int64, Digest). This
// package imports nothing internal except fault, so every other package
// can depend on it.
//
// Key design constraints:
//   - NO float types anywhere. Quantity is fixed-point, Timestamp is
//     integer microseconds.
//   - MarshalCanonical is the ONLY serialization used for content
//     identity. JSON is a presentation format.
//   - Order of groups and of contents within a group is significant and
//     is part of the hashed representation.
//   - A Digest value inside content doubles as a graph edge.
package flex

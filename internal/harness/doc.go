// Package harness runs document graph conformance scenarios.
//
// A scenario is a YAML file describing a sequence of operations against
// a fresh store, followed by assertions on the resulting graph:
//
//	name: fork_example
//	description: "A fork overrides the parent's title"
//	options:
//	  certifiers: [auditor]
//	  max_depth: 10
//	steps:
//	  - op: create
//	    as: v1
//	    creator: alice
//	    groups:
//	      - - {label: title, value: v1}
//	  - op: fork
//	    as: v2
//	    parent: v1
//	    creator: alice
//	    groups:
//	      - - {label: title, value: v2}
//	  - op: certify
//	    document: v2
//	    certifier: mallory
//	    expect_error: UNAUTHORIZED
//	assertions:
//	  - type: label
//	    document: v2
//	    label: title
//	    value: v2
//	  - type: document_count
//	    count: 2
//
// # Steps
//
//   - create: stores groups as a root document
//   - fork: forks parent (an alias) with groups; diff: true stores only the
//     overlay needed to reach groups
//   - certify: certifies document with certifier and notes
//   - reconstruct: reconstructs document, optionally with max_depth
//
// A step with expect_error must fail with that error code; any other
// failure fails the scenario. Such a step creates nothing, so it may not
// name an alias with as.
//
// # Assertion Types
//
//   - label: a label's value in the document's reconstruction
//   - document_count: the number of stored documents
//   - certificate_count: the number of certificates on a document
//   - hash_equal, hash_not_equal: compare the hashes of two aliases
//   - depth: the number of edges to the document's root
//
// # Deterministic Testing
//
// Each scenario runs in its own in-memory SQLite database with a fake
// clock, so document ids, hashes and timestamps are identical across
// runs. Certificate and event ids are random and never appear in traces.
// This keeps traces stable for golden file comparison.
package harness

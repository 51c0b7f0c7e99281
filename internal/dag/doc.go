// Package dag provides the dependency graph underlying the build plan.
//
// Nodes are task identifiers; an edge from A to B means B may not start
// until A has completed. The graph carries no execution state of its own:
// the executor owns task state, the graph answers structural queries
// (dependencies, dependents, cycle detection). All operations are
// concurrency-safe.
package dag

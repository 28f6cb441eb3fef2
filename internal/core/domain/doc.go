// Package domain holds the core types of the gitrecon scan engine:
// scan targets, repository references, commit identities, aggregated
// email records, rate-limit snapshots and the scan state aggregate.
//
// The package has no dependencies outside the standard library. Ports
// and services are expressed in terms of these types; connectors
// normalize platform responses into them at the adapter boundary.
package domain

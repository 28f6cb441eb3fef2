// Package driven defines the interfaces that the scan engine calls OUT
// to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal
// architecture. Core services depend on these interfaces, and adapters
// implement them:
//
//   - PlatformConnector: platform API access (GitHub, GitLab)
//   - RateLimitObserver: rate-limit state fed by connectors
//   - CheckpointStore: durable scan snapshots and final reports
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter or connector package
package driven

// New-member vetting for community servers.
//
// This package tree (`github.com/kickguard/bouncer/automod`) contains a small decision engine which runs an ordered set of checks against every member who joins a server: a manually curated whitelist, a minimum account age, and a heuristic scam-profile detector. Members who fail a check are sent a best-effort notice and then removed. The outcome of each join is logged, counted in metrics, and optionally recorded as a flag for later review.
//
// Sub-packages:
//
//   - `engine`: the decision pipeline and its collaborator interfaces
//   - `whitelist`: the race-safe, persisted override list
//   - `keyword`: scam signal detection over display text
//   - `helpers`: account age arithmetic
//   - `cachestore`, `flagstore`: caching and audit storage, with in-memory and redis implementations
//
// See `cmd/bouncer` for a daemon built on these packages.
package automod

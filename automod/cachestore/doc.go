// Automod component for caching arbitrary data (as JSON strings) with a fixed TTL and purging.
//
// Includes an interface and implementations using redis and in-process memory.
//
// The vetting engine uses this to hold extended member profiles fetched from the platform, so a burst of joins (or a member re-joining) does not repeat the same API reads.
package cachestore

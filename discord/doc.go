// Minimal Discord REST client for executing vetting decisions: sending a direct-message notice, removing a member, and reading guild member profiles.
//
// Receiving join events (the gateway websocket protocol) is out of scope; the daemon accepts them over an HTTP webhook instead.
package discord

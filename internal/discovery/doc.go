// Package discovery finds OnyxNet relays on the local network over mDNS.
//
// A relay started with advertising enabled publishes its TCP port under
// ServiceType; participants browse for it instead of typing an address.
package discovery

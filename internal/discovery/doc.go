// Package discovery resolves the network endpoint of a Nova launch monitor.
//
// Three strategies are available, each bounded by the configured discovery
// timeout:
//
//   - SSDP: an M-SEARCH for "urn:openlaunch:service:openapi:1" sent to
//     239.255.255.250:1900; the first reply that mentions the service URN and
//     carries a parseable LOCATION header wins
//   - mDNS: a DNS-SD browse for "_openapi-nova._tcp" in "local."; the first
//     resolved service with an address and port wins
//   - Manual: the configured endpoint, returned without any network I/O
//
// A Resolver turns the selected method into an ordered strategy list and tries
// each entry once:
//
//	ssdp   -> [SSDP, mDNS]
//	mdns   -> [mDNS]
//	manual -> [manual]
//
// There is no fallback from mDNS to SSDP. When every strategy fails the caller
// gets a single resolution error and is expected to retry on its own schedule.
//
// # Usage Example
//
//	resolver := discovery.NewResolver()
//	endpoint, err := resolver.Resolve(ctx, discovery.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Nova OpenAPI at %s\n", endpoint)
//
// # Network Requirements
//
// - Multicast must be allowed on the local interface
// - The device must be on the same network segment
// - Firewalls must allow UDP 1900 (SSDP) and UDP 5353 (mDNS)
package discovery

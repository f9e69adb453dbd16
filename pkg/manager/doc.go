// Package manager is the public entry point for the proxy pool.
//
// A Manager is built from a list of SOCKS proxy descriptors and a
// configuration. At construction it starts a background health monitor
// that probes every proxy on a fixed interval and publishes the set of
// live proxies sorted by latency. Requests dispatched through the manager
// rotate round-robin over that live set, retrying and failing over
// according to the configured budgets.
//
//	m, err := manager.New([]pool.Descriptor{
//		{Host: "10.0.0.1", Port: 1080},
//		{Host: "10.0.0.2", Port: 1080, Username: "u", Password: "p"},
//	}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer m.Stop()
//
//	resp, err := m.Request(ctx, "https://example.com/api", nil)
//
// The first Request or LiveProxies call suspends until the initial health
// pass completes, so callers never observe a spuriously empty pool at
// startup.
package manager

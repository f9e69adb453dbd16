// Package source loads proxy descriptors from proxy-list files and
// optionally watches those files for additions, feeding new proxies into the
// record store without removing existing entries.
package source

// Package deps reports which external executables named by the
// configuration are available on this host.
package deps

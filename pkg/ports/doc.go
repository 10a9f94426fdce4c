// Package ports defines the interfaces between the rill core and its
// pluggable storage backends, plus a shared contract test suite that
// every RunArchive implementation must pass.
package ports

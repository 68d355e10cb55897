// Package payload supplies the payload sequences fed to the batcher.
//
// A [Pool] owns a fixed set of randomly generated payloads. [Pool.Sample]
// returns a lazy sequence of distinct payloads picked at random, yielding
// references into the pool rather than copies.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package payload

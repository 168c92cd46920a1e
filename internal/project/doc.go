// Package project defines the annotation data model: scenes, endpoints,
// hotspots, per-scene annotation sets, and the authoritative project
// document, together with the JSON document file helpers used by the server.
//
// Decoding normalizes historical encodings (legacy bare-coordinate endpoints,
// missing scale factors) so every other package works with canonical shapes.
package project

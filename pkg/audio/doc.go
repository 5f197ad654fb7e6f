// ABOUTME: Core audio types package
// ABOUTME: Shared formats, clips and sample conversion helpers
// Package audio provides the shared types for decoded sound assets.
//
// All decoded audio is interleaved int32 PCM in 24-bit range so 16-bit
// and 24-bit sources mix without special cases.
package audio

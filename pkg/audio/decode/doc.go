// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface, implementations and format negotiation
// Package decode provides audio decoders for various codecs.
//
// Supports: WAV (16-bit and 24-bit PCM), FLAC, MP3, Opus (packet)
//
// All decoders implement the Decoder interface and output int32 samples
// in 24-bit range for consistent processing.
//
// The Negotiator probes which codecs the runtime can decode and ranks
// candidate sources by format preference.
package decode

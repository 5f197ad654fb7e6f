// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts clips between sample rates and channel layouts
// Package resample provides sample rate and channel conversion for
// decoded clips so every voice matches the mixer's output format.
package resample

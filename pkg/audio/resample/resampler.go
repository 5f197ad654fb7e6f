// ABOUTME: Linear resampler for decoded clips
// ABOUTME: Converts sample rates and channel counts for the mixer
package resample

// Linear converts interleaved samples from inRate to outRate using linear
// interpolation. Handles both upsampling and downsampling. The input is
// consumed as a whole clip, not a stream chunk.
func Linear(input []int32, channels, inRate, outRate int) []int32 {
	if inRate == outRate || len(input) == 0 || channels == 0 {
		return input
	}

	inFrames := len(input) / channels
	if inFrames < 2 {
		return input
	}

	ratio := float64(inRate) / float64(outRate)
	outFrames := int(float64(inFrames) / ratio)
	output := make([]int32, outFrames*channels)

	for out := 0; out < outFrames; out++ {
		pos := float64(out) * ratio
		idx := int(pos)
		if idx >= inFrames-1 {
			idx = inFrames - 2
		}
		frac := pos - float64(idx)

		for ch := 0; ch < channels; ch++ {
			s1 := input[idx*channels+ch]
			s2 := input[(idx+1)*channels+ch]
			output[out*channels+ch] = int32(float64(s1)*(1.0-frac) + float64(s2)*frac)
		}
	}

	return output
}

// Upmix converts interleaved samples to the target channel count.
// Mono is duplicated across channels; extra source channels are dropped.
func Upmix(input []int32, inChannels, outChannels int) []int32 {
	if inChannels == outChannels || inChannels == 0 {
		return input
	}

	frames := len(input) / inChannels
	output := make([]int32, frames*outChannels)

	for f := 0; f < frames; f++ {
		for ch := 0; ch < outChannels; ch++ {
			src := ch
			if src >= inChannels {
				src = inChannels - 1
			}
			output[f*outChannels+ch] = input[f*inChannels+src]
		}
	}

	return output
}

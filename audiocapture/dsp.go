package audiocapture

import "math"

// DownmixF32 averages each frame of interleaved samples into one mono sample.
// A trailing partial frame is dropped.
func DownmixF32(data []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(data))
		copy(out, data)
		return out
	}

	frames := len(data) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for _, s := range data[i*channels : (i+1)*channels] {
			sum += s
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// DownmixI16 scales 16-bit samples to [-1, 1] and averages each frame.
func DownmixI16(data []int16, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}

	frames := len(data) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for _, s := range data[i*channels : (i+1)*channels] {
			sum += float32(s) / math.MaxInt16
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Resample converts input from one rate to another by linear interpolation.
// The output has floor(len(input)*to/from) samples. When the rates are equal
// input is returned as is.
func Resample(input []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 {
		return input
	}

	n := int(int64(len(input)) * int64(to) / int64(from))
	out := make([]float32, n)
	ratio := float64(from) / float64(to)
	for i := range n {
		src := float64(i) * ratio
		k := int(src)
		f := src - float64(k)
		if k+1 < len(input) {
			out[i] = float32(float64(input[k])*(1-f) + float64(input[k+1])*f)
		} else {
			out[i] = input[min(k, len(input)-1)]
		}
	}
	return out
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

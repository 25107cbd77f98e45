package audiocapture

import (
	"math"
	"testing"
)

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		f32      []float32
		i16      []int16
		channels int
		want     []float32
	}{
		{"mono f32 passthrough", []float32{0.1, -0.2}, nil, 1, []float32{0.1, -0.2}},
		{"stereo f32 mean", []float32{1, 0, 0.5, -0.5}, nil, 2, []float32{0.5, 0}},
		{"partial frame dropped", []float32{1, 1, 1}, nil, 2, []float32{1}},
		{"i16 full scale", nil, []int16{32767, 0}, 1, []float32{1, 0}},
		{"i16 stereo mean", nil, []int16{32767, 32767, 32767, 0}, 2, []float32{1, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []float32
			if tt.i16 != nil {
				got = DownmixI16(tt.i16, tt.channels)
			} else {
				got = DownmixF32(tt.f32, tt.channels)
			}
			assertSamples(t, got, tt.want)
		})
	}
}

func TestResampleLength(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		from, to int
		want     int
	}{
		{"48k to 16k", 48000, 48000, 16000, 16000},
		{"44.1k to 16k", 44100, 44100, 16000, 16000},
		{"44.1k odd length", 1001, 44100, 16000, 363},
		{"8k up to 16k", 100, 8000, 16000, 200},
		{"empty", 0, 48000, 16000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(make([]float32, tt.n), tt.from, tt.to)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestResampleSameRateUnchanged(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if &out[0] != &in[0] || len(out) != len(in) {
		t.Fatal("expected input to be returned unchanged")
	}
}

func TestResample48kTo16k(t *testing.T) {
	in := make([]float32, 48000)
	for i := range in {
		in[i] = float32(i) / 48000
	}

	out := Resample(in, 48000, 16000)
	if len(out) != 16000 {
		t.Fatalf("len = %d, want 16000", len(out))
	}
	if out[0] != in[0] {
		t.Errorf("out[0] = %v, want %v", out[0], in[0])
	}
	if out[15999] != in[47997] {
		t.Errorf("out[15999] = %v, want %v", out[15999], in[47997])
	}
}

func TestResampleInterpolates(t *testing.T) {
	// 2 -> 3: src positions 0, 2/3, 4/3 (clamped at the tail)
	out := Resample([]float32{0, 3}, 2, 3)
	want := []float32{0, 2, 3}
	assertSamples(t, out, want)
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}
	got := RMS([]float32{0.5, -0.5, 0.5, -0.5})
	if math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("RMS = %v, want 0.5", got)
	}
}

func TestBufferTakeEmpties(t *testing.T) {
	var b Buffer
	b.Append([]float32{1, 2})
	b.Append([]float32{3})
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}

	snap := b.Snapshot()
	snap[0] = 42
	got := b.Take()
	assertSamples(t, got, []float32{1, 2, 3})
	if b.Len() != 0 {
		t.Errorf("Len after Take = %d, want 0", b.Len())
	}
}

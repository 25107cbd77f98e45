package audiocapture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

// fakeDriver delivers data synchronously when the stream starts.
type fakeDriver struct {
	dev       device
	probeErr  error
	openErr   error
	f32       [][]float32
	i16       [][]int16
	onF32     func([]float32)
	onI16     func([]int16)
	released  int
	started   int
	stopped   int
	openCalls int
}

type fakeStream struct{ d *fakeDriver }

func (s fakeStream) Start() error {
	s.d.started++
	for _, chunk := range s.d.f32 {
		s.d.onF32(chunk)
	}
	for _, chunk := range s.d.i16 {
		s.d.onI16(chunk)
	}
	return nil
}
func (s fakeStream) Stop() error  { s.d.stopped++; return nil }
func (s fakeStream) Close() error { return nil }

func (d *fakeDriver) defaultInput() (device, error) { return d.dev, d.probeErr }
func (d *fakeDriver) openF32(_ device, on func([]float32)) (stream, error) {
	d.openCalls++
	d.onF32 = on
	return fakeStream{d}, d.openErr
}
func (d *fakeDriver) openI16(_ device, on func([]int16)) (stream, error) {
	d.openCalls++
	d.onI16 = on
	return fakeStream{d}, d.openErr
}
func (d *fakeDriver) release() error { d.released++; return nil }

func TestNewNoInputDevice(t *testing.T) {
	d := &fakeDriver{probeErr: ErrNoInputDevice}
	if _, err := newRecorder(d, DefaultConfig()); !errors.Is(err, ErrNoInputDevice) {
		t.Fatalf("expected ErrNoInputDevice, got %v", err)
	}
	if d.released != 1 {
		t.Errorf("released = %d, want 1", d.released)
	}
}

func TestStartUnsupportedFormat(t *testing.T) {
	d := &fakeDriver{dev: device{name: "mic", sampleRate: 16000, channels: 1}}
	r, err := newRecorder(d, Config{Format: "u8"})
	if err != nil {
		t.Fatalf("newRecorder: %v", err)
	}
	if err := r.Start(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if d.openCalls != 0 {
		t.Errorf("openCalls = %d, want 0", d.openCalls)
	}
}

func TestRecorderSnapshotAndStop(t *testing.T) {
	d := &fakeDriver{
		dev: device{name: "mic", sampleRate: 16000, channels: 2},
		f32: [][]float32{{0.2, 0.4, -1, 1}, {0.5, 0.5}},
	}
	r, err := newRecorder(d, DefaultConfig())
	if err != nil {
		t.Fatalf("newRecorder: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(); !errors.Is(err, ErrAlreadyCapturing) {
		t.Fatalf("second Start: expected ErrAlreadyCapturing, got %v", err)
	}

	want := []float32{0.3, 0, 0.5}
	first := r.Snapshot()
	second := r.Snapshot()
	assertSamples(t, first, want)
	assertSamples(t, second, first)

	got := r.Stop()
	assertSamples(t, got, want)
	if d.stopped != 1 || d.released != 1 {
		t.Errorf("stopped = %d, released = %d, want 1, 1", d.stopped, d.released)
	}
	if n := len(r.Snapshot()); n != 0 {
		t.Errorf("snapshot after Stop has %d samples, want 0", n)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close after Stop: %v", err)
	}
	if d.released != 1 {
		t.Errorf("released = %d after second Close, want 1", d.released)
	}
}

func TestRecorderStartClearsPreviousSamples(t *testing.T) {
	d := &fakeDriver{
		dev: device{name: "mic", sampleRate: 16000, channels: 1},
		f32: [][]float32{{0.1, 0.2}},
	}
	r, err := newRecorder(d, DefaultConfig())
	if err != nil {
		t.Fatalf("newRecorder: %v", err)
	}
	r.buf.Append([]float32{9, 9, 9})

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	assertSamples(t, r.Snapshot(), []float32{0.1, 0.2})
}

func TestRecorderI16Resampled(t *testing.T) {
	chunk := make([]int16, 48000)
	for i := range chunk {
		chunk[i] = 32767
	}
	d := &fakeDriver{
		dev: device{name: "usb", sampleRate: 48000, channels: 1},
		i16: [][]int16{chunk},
	}
	r, err := newRecorder(d, Config{Format: FormatI16})
	if err != nil {
		t.Fatalf("newRecorder: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := r.Stop()
	if len(got) != 16000 {
		t.Fatalf("len = %d, want 16000", len(got))
	}
	if got[0] != 1 {
		t.Errorf("got[0] = %v, want 1", got[0])
	}
}

func TestRecorderClampsChannels(t *testing.T) {
	d := &fakeDriver{dev: device{name: "pulse", sampleRate: 44100, channels: 32}}
	r, err := newRecorder(d, DefaultConfig())
	if err != nil {
		t.Fatalf("newRecorder: %v", err)
	}
	if r.dev.channels != 2 {
		t.Errorf("channels = %d, want 2", r.dev.channels)
	}
	if r.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", r.SampleRate())
	}
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dumps", "session.wav")
	samples := []float32{0, 0.5, -0.5, 1, -1, 2}

	if err := WriteWAV(path, samples, TargetSampleRate); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("expected a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if buf.Format.SampleRate != TargetSampleRate {
		t.Errorf("SampleRate = %d, want %d", buf.Format.SampleRate, TargetSampleRate)
	}
	want := []int{0, 16384, -16384, 32767, -32767, 32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("len = %d, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("Data[%d] = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func assertSamples(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("sample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

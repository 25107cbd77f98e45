package audiocapture

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// portAudio is the driver backed by the PortAudio default host API.
// Every instance holds one Initialize reference until release.
type portAudio struct {
	info *portaudio.DeviceInfo
}

func newPortAudio() (*portAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &portAudio{}, nil
}

func (p *portAudio) defaultInput() (device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil || info == nil || info.MaxInputChannels < 1 {
		if err == nil {
			err = errors.New("device has no input channels")
		}
		return device{}, fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}
	p.info = info
	return device{
		name:       info.Name,
		sampleRate: int(info.DefaultSampleRate),
		channels:   info.MaxInputChannels,
	}, nil
}

func (p *portAudio) params(dev device) portaudio.StreamParameters {
	params := portaudio.HighLatencyParameters(p.info, nil)
	params.Input.Channels = dev.channels
	params.SampleRate = float64(dev.sampleRate)
	return params
}

func (p *portAudio) openF32(dev device, onData func([]float32)) (stream, error) {
	return portaudio.OpenStream(p.params(dev), func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		logOverflow(flags)
		onData(in)
	})
}

func (p *portAudio) openI16(dev device, onData func([]int16)) (stream, error) {
	return portaudio.OpenStream(p.params(dev), func(in []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		logOverflow(flags)
		onData(in)
	})
}

func (p *portAudio) release() error {
	return portaudio.Terminate()
}

// Stream faults are reported through callback flags; capture continues.
func logOverflow(flags portaudio.StreamCallbackFlags) {
	if flags&portaudio.InputOverflow != 0 {
		slog.Error("audio stream error", "error", "input overflow")
	}
	if flags&portaudio.InputUnderflow != 0 {
		slog.Error("audio stream error", "error", "input underflow")
	}
}

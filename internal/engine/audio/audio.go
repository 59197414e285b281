// Package audio owns the speaker and a master mixer for engine sounds.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
)

// DefaultSampleRate is the speaker sample rate.
const DefaultSampleRate = beep.SampleRate(44100)

// Manager plays sounds through one master volume stage.
type Manager struct {
	mu  sync.RWMutex
	log *zap.Logger

	initialized bool
	sampleRate  beep.SampleRate

	mixer  *beep.Mixer
	master *effects.Volume

	masterVolume float64
	muted        bool
}

// New creates a manager. Volume can be set before Init.
func New(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		log:          log,
		sampleRate:   DefaultSampleRate,
		mixer:        &beep.Mixer{},
		masterVolume: 1.0,
	}
	m.master = &effects.Volume{Streamer: m.mixer, Base: 2}
	m.updateVolume()
	return m
}

// Init opens the speaker and starts the master mixer.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.master)
	m.initialized = true
	m.log.Info("audio initialized", zap.Int("sample_rate", int(m.sampleRate)))
	return nil
}

// Close stops playback and releases the speaker.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	m.initialized = false
	m.log.Info("audio closed")
	return nil
}

// IsInitialized returns whether the speaker is open.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.lock()
	defer m.unlock()
	m.masterVolume = clamp(vol, 0, 1)
	m.updateVolume()
}

// MasterVolume returns the master volume.
func (m *Manager) MasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// SetMuted silences or restores output without losing the volume.
func (m *Manager) SetMuted(muted bool) {
	m.lock()
	defer m.unlock()
	m.muted = muted
	m.updateVolume()
}

// Muted reports whether output is muted.
func (m *Manager) Muted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// PlayWAV decodes WAV data and mixes it in. The data is decoded before
// the speaker is checked, so bad files are reported either way.
func (m *Manager) PlayWAV(data []byte) error {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	if !m.IsInitialized() {
		return fmt.Errorf("audio not initialized")
	}
	var s beep.Streamer = streamer
	if format.SampleRate != m.sampleRate {
		s = beep.Resample(4, format.SampleRate, m.sampleRate, streamer)
	}
	m.add(s)
	return nil
}

// PlayTone mixes in a sine tone.
func (m *Manager) PlayTone(freq float64, d time.Duration) error {
	if !m.IsInitialized() {
		return fmt.Errorf("audio not initialized")
	}
	tone, err := generators.SineTone(m.sampleRate, freq)
	if err != nil {
		return fmt.Errorf("tone %.1fHz: %w", freq, err)
	}
	m.add(beep.Take(m.sampleRate.N(d), tone))
	return nil
}

// RegisterCommands installs mute, unmute and tone.
func (m *Manager) RegisterCommands(reg *command.Registry) error {
	return multierr.Combine(
		command.Register0(reg, "mute", func() { m.SetMuted(true) }),
		command.Register0(reg, "unmute", func() { m.SetMuted(false) }),
		command.Register2(reg, "tone", func(freq, seconds float64) {
			if err := m.PlayTone(freq, time.Duration(seconds*float64(time.Second))); err != nil {
				m.log.Warn("tone failed", zap.Error(err))
			}
		}),
	)
}

func (m *Manager) add(s beep.Streamer) {
	speaker.Lock()
	m.mixer.Add(s)
	speaker.Unlock()
}

// lock also holds the speaker while it runs, so the master stage is not
// read mid-update.
func (m *Manager) lock() {
	m.mu.Lock()
	if m.initialized {
		speaker.Lock()
	}
}

func (m *Manager) unlock() {
	if m.initialized {
		speaker.Unlock()
	}
	m.mu.Unlock()
}

func (m *Manager) updateVolume() {
	if m.muted || m.masterVolume <= 0 {
		m.master.Silent = true
		return
	}
	m.master.Silent = false
	m.master.Volume = volumeToDb(m.masterVolume)
}

// volumeToDb converts a 0-1 volume to the exponent used with Base 2.
// vol=1 -> 0, vol=0.5 -> about -6.
func volumeToDb(vol float64) float64 {
	if vol <= 0 {
		return -100
	}
	return 20 * math.Log10(vol)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

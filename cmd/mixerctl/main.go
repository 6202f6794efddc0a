// Command mixerctl is the mixer engine's demo/reference binary: it seeds a
// handful of demo sounds onto a directory store, wires the engine and
// command adapter over a simulated bus, and plays a short demo sequence
// through the adapter exactly as an external controller would, then blocks
// until interrupted.
package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/pflag"

	"github.com/soundmodule/mixer-engine/internal/assets"
	"github.com/soundmodule/mixer-engine/internal/bus"
	"github.com/soundmodule/mixer-engine/internal/busproto"
	"github.com/soundmodule/mixer-engine/internal/config"
	"github.com/soundmodule/mixer-engine/internal/engine"
	"github.com/soundmodule/mixer-engine/internal/sink"
	"github.com/soundmodule/mixer-engine/internal/storage"
	"github.com/soundmodule/mixer-engine/internal/telemetry"
)

func main() {
	cfg := config.New()
	configFile := pflag.String("config", "", "optional YAML config file")
	useOto := pflag.Bool("oto", false, "play through the real audio device instead of the headless sink")
	cfg.BindFlags(pflag.CommandLine)
	pflag.Parse()

	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		// Parse the command line again so flags given explicitly take
		// precedence over values read from the file.
		pflag.Parse()
	}

	log := telemetry.NewLogger(cfg.Verbose)

	if err := os.MkdirAll(cfg.StorageRoot, 0o755); err != nil {
		log.Fatal("create storage root", "err", err)
	}
	if err := seedDemoSounds(cfg.StorageRoot); err != nil {
		log.Fatal("seed demo sounds", "err", err)
	}
	store := storage.NewDirStore(cfg.StorageRoot)

	var snk sink.Sink
	if *useOto {
		otoSink, err := sink.NewOtoSink(int(cfg.SinkRate))
		if err != nil {
			log.Fatal("open audio sink", "err", err)
		}
		defer otoSink.Close()
		snk = otoSink
	} else {
		snk = sink.NewSimSink(false)
	}

	eng := engine.New(engine.Params{
		SinkRate:      cfg.SinkRate,
		MaxSources:    cfg.MaxSources,
		RingBytes:     cfg.RingBytes,
		FramesPerTick: cfg.FramesPerTick,
		ChunkInFrames: cfg.ChunkInFrames,
		DrainMS:       cfg.DrainMS,
	}, snk, log)
	defer eng.Close()
	eng.SetSinkReady(true)
	go eng.Run()

	module, controller := bus.NewSimBusPair()
	adapter := busproto.NewAdapter(module, eng, assets.NewBuiltinRegistry(), store,
		log, 0x01, time.Duration(cfg.StatusIntervalSec)*time.Second)
	defer adapter.Close()
	go adapter.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go runDemoSequence(log, controller)

	log.Info("mixer module running", "storage_root", cfg.StorageRoot, "max_sources", cfg.MaxSources)
	<-sigCh
	log.Info("shutting down")
}

// seedDemoSounds writes the handful of built-in demo tones out using
// go-audio/wav at the same store-relative layout storage.SoundAssetPath
// describes, so the command adapter's storage-first lookup finds them
// before ever falling back to the in-process asset registry. root is the
// store's mount root (cfg.StorageRoot); the "sounds" directory that
// SoundAssetPath names is created beneath it.
func seedDemoSounds(root string) error {
	tones := []struct {
		id       uint16
		freqHz   float64
		seconds  float64
		sampleHz int
	}{
		{id: assets.SoundChime, freqHz: 880, seconds: 0.2, sampleHz: 22050},
		{id: assets.SoundError, freqHz: 220, seconds: 0.3, sampleHz: 22050},
	}

	for _, tn := range tones {
		relPath := filepath.FromSlash(storage.SoundAssetPath(tn.id))
		path := filepath.Join(root, relPath)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := writeToneWav(path, tn.freqHz, tn.seconds, tn.sampleHz); err != nil {
			return fmt.Errorf("seed sound %d: %w", tn.id, err)
		}
	}
	return nil
}

// writeToneWav synthesizes a mono sine tone and encodes it through
// go-audio/wav.Encoder, the same encoder/decoder pair the teacher's
// pipeline used on the decode side.
func writeToneWav(path string, freqHz, seconds float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n := int(seconds * float64(sampleRate))
	data := make([]int, n)
	const amplitude = 12000.0
	for i := range data {
		t := float64(i) / float64(sampleRate)
		data[i] = int(amplitude * math.Sin(2*math.Pi*freqHz*t))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   data,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// runDemoSequence plays the two seeded demo sounds back to back through the
// bus, exactly as an external controller would: query the module, play the
// chime, let it finish, then play the error buzzer looped and stop it after
// a second, demonstrating both natural completion and an explicit stop.
func runDemoSequence(log *charmlog.Logger, controller bus.Bus) {
	time.Sleep(200 * time.Millisecond)

	controller.Send(bus.Frame{ID: 0x411, DLC: 8})
	if f, ok := recvUntil(controller, 0x410, time.Second); ok {
		log.Info("module announce", "type", f.Data[0], "version", fmt.Sprintf("%d.%d", f.Data[1], f.Data[2]))
	}

	play := func(soundIndex uint16, loop bool, requestID uint16) (queueID uint8, ok bool) {
		var flags uint8
		if loop {
			flags |= 1 << 2
		}
		d := [8]byte{byte(soundIndex), byte(soundIndex >> 8), flags, 0xFF, byte(requestID), byte(requestID >> 8)}
		controller.Send(bus.Frame{ID: 0x420, DLC: 8, Data: d})
		f, recvOK := recvUntil(controller, 0x423, time.Second)
		if !recvOK {
			return 0, false
		}
		return f.Data[3], f.Data[0] == 1
	}

	if qid, ok := play(assets.SoundChime, false, 1); ok {
		log.Info("playing chime", "queue_id", qid)
		waitFinished(controller)
	}

	if qid, ok := play(assets.SoundError, true, 2); ok {
		log.Info("playing error buzzer looped", "queue_id", qid)
		time.Sleep(time.Second)
		d := [8]byte{qid}
		controller.Send(bus.Frame{ID: 0x421, DLC: 8, Data: d})
		waitFinished(controller)
	}
}

func waitFinished(controller bus.Bus) {
	recvUntil(controller, 0x425, 3*time.Second)
}

// recvUntil drains frames until one with the given id arrives or the overall
// deadline passes, skipping interleaved frames (periodic SOUND_STATUS,
// unrelated FINISHED events) the same way a real controller would.
func recvUntil(controller bus.Bus, id uint16, timeout time.Duration) (bus.Frame, bool) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return bus.Frame{}, false
		}
		f, ok := controller.Recv(remaining)
		if !ok {
			return bus.Frame{}, false
		}
		if f.ID == id {
			return f, true
		}
	}
}

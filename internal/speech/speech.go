// Package speech plays synthesized audio through an external player.
package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/llm"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
)

// Raw speech comes back as 16-bit little-endian mono PCM.
const (
	defaultSampleRate = 24000
	bitsPerSample     = 16
	channels          = 1
)

var candidatePlayers = []string{"afplay", "paplay", "aplay", "ffplay"}

// Player writes audio to a file under dir and runs a player command on it.
type Player struct {
	dir     string
	command string
	args    []string
	log     *logging.Logger

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewPlayer creates a Player from the speech section of cfg.
func NewPlayer(cfg *config.Config, log *logging.Logger) *Player {
	if log == nil {
		log = logging.Nop()
	}
	return &Player{
		dir:      cfg.AudioDir(),
		command:  cfg.Speech.Player,
		args:     cfg.Speech.Args,
		log:      log.WithPrefix("speech"),
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Play writes audio to disk and blocks until the player exits.
func (p *Player) Play(ctx context.Context, audio *llm.Audio) error {
	if audio == nil || len(audio.Data) == 0 {
		return nil
	}
	path, err := p.Write(audio)
	if err != nil {
		return err
	}

	player, err := p.player()
	if err != nil {
		return err
	}
	args := append(append([]string(nil), p.args...), path)
	if filepath.Base(player) == "ffplay" && len(p.args) == 0 {
		args = []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	}

	p.log.Debug("playing audio", logging.Path(path), logging.Command(player))
	if err := p.run(ctx, player, args...); err != nil {
		return fmt.Errorf("run %s: %w", player, err)
	}
	return nil
}

// Write stores audio as a playable file and returns its path.
func (p *Player) Write(audio *llm.Audio) (string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	data, ext := Encode(audio)
	name := fmt.Sprintf("speech_%s%s", time.Now().Format("20060102_150405.000"), ext)
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return path, nil
}

func (p *Player) player() (string, error) {
	if p.command != "" {
		return p.command, nil
	}
	for _, c := range candidatePlayers {
		if path, err := p.lookPath(c); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no audio player found; set speech.player in config")
}

// Encode returns audio in a container a player understands and the file
// extension for it. Raw PCM is wrapped in a WAV header.
func Encode(audio *llm.Audio) ([]byte, string) {
	mime := strings.ToLower(audio.MIMEType)
	switch {
	case strings.HasPrefix(mime, "audio/wav"), strings.HasPrefix(mime, "audio/x-wav"):
		return audio.Data, ".wav"
	case strings.HasPrefix(mime, "audio/mpeg"), strings.HasPrefix(mime, "audio/mp3"):
		return audio.Data, ".mp3"
	case strings.HasPrefix(mime, "audio/ogg"):
		return audio.Data, ".ogg"
	}
	return WAV(audio.Data, SampleRate(mime)), ".wav"
}

// SampleRate reads the rate parameter of a PCM MIME type such as
// "audio/L16;codec=pcm;rate=24000".
func SampleRate(mime string) int {
	for _, part := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(k, "rate") {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return defaultSampleRate
}

// WAV wraps 16-bit mono PCM samples in a RIFF header.
func WAV(pcm []byte, sampleRate int) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// Command mktone writes a PCM16 stereo WAV metronome track for exercising
// the track source without shipping audio assets.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/alecthomas/kong"
)

const (
	channels = 2
	bits     = 16
)

type toneOptions struct {
	SampleRate uint32
	Seconds    float64
	BPM        float64
	Freq       float64
}

var cli struct {
	Out        string  `arg:"" help:"Output .wav file." type:"path"`
	Seconds    float64 `help:"Track length in seconds." default:"30"`
	BPM        float64 `help:"Clicks per minute." default:"120"`
	Freq       float64 `help:"Click frequency in Hz." default:"880"`
	SampleRate uint32  `help:"Sample rate in Hz." default:"44100"`
}

func main() {
	kong.Parse(&cli, kong.Name("mktone"), kong.Description("Write a metronome WAV track."))

	opts := toneOptions{SampleRate: cli.SampleRate, Seconds: cli.Seconds, BPM: cli.BPM, Freq: cli.Freq}
	if err := writeFile(cli.Out, opts); err != nil {
		fatalf("mktone: %v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func writeFile(path string, opts toneOptions) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(out, 64*1024)
	if err := writeTone(bw, opts); err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeTone emits a click of 30ms at every beat and silence in between.
func writeTone(w io.Writer, opts toneOptions) error {
	if opts.SampleRate == 0 || opts.Seconds <= 0 || opts.BPM <= 0 {
		return fmt.Errorf("invalid tone options: %+v", opts)
	}
	frames := uint32(opts.Seconds * float64(opts.SampleRate))
	dataBytes := frames * channels * (bits / 8)
	if err := writeWAVHeader(w, opts.SampleRate, channels, bits, dataBytes); err != nil {
		return err
	}

	beatFrames := uint32(60 / opts.BPM * float64(opts.SampleRate))
	clickFrames := opts.SampleRate * 30 / 1000
	var buf [channels * bits / 8]byte
	for i := uint32(0); i < frames; i++ {
		var s int16
		if beatFrames > 0 {
			if pos := i % beatFrames; pos < clickFrames {
				env := 1 - float64(pos)/float64(clickFrames)
				phase := 2 * math.Pi * opts.Freq * float64(i) / float64(opts.SampleRate)
				s = int16(math.Sin(phase) * env * 0.6 * math.MaxInt16)
			}
		}
		binary.LittleEndian.PutUint16(buf[0:2], uint16(s))
		binary.LittleEndian.PutUint16(buf[2:4], uint16(s))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeWAVHeader(w io.Writer, sampleRate uint32, channels uint16, bits uint16, dataBytes uint32) error {
	blockAlign := channels * (bits / 8)
	byteRate := sampleRate * uint32(blockAlign)
	riffSize := 4 + (8 + 16) + (8 + dataBytes)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], riffSize)
	copy(hdr[8:12], "WAVE")

	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], channels)
	binary.LittleEndian.PutUint32(hdr[24:28], sampleRate)
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], bits)

	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataBytes)

	_, err := w.Write(hdr[:])
	return err
}

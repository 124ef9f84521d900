// Package audio converts between float sample buffers and the PCM16 wire
// format, captures microphone blocks and schedules gapless playback.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// InputSampleRate is the rate of every outbound audio frame.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of every inbound model audio chunk.
	OutputSampleRate = 24000

	// PCMMimeType is sent alongside every outbound audio frame.
	PCMMimeType = "audio/pcm"
)

// FloatToInt16PCM encodes samples as little-endian signed 16-bit PCM.
// Samples are clamped to [-1, 1]; negatives scale by 0x8000 and positives by 0x7FFF.
// Positives round up so decoding by 1/32768 stays within one quantization step.
func FloatToInt16PCM(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s < 0 {
			v = int16(s * 0x8000)
		} else {
			v = int16(math.Ceil(float64(s) * 0x7FFF))
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// Int16PCMToFloat decodes little-endian signed 16-bit PCM into floats in [-1, 1).
// A trailing odd byte is ignored.
func Int16PCMToFloat(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// Downsample decimates samples from inputRate to targetRate by nearest-neighbour
// picking. The result is not low-pass filtered.
func Downsample(samples []float32, inputRate, targetRate int) []float32 {
	if inputRate == targetRate || inputRate <= 0 || targetRate <= 0 {
		return samples
	}
	ratio := float64(inputRate) / float64(targetRate)
	n := int(math.Floor(float64(len(samples)) * float64(targetRate) / float64(inputRate)))
	out := make([]float32, n)
	for i := range out {
		idx := int(math.Floor(float64(i) * ratio))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		out[i] = samples[idx]
	}
	return out
}

// EncodeFrame turns a captured block at rate into a base64 PCM16 frame at 16 kHz.
func EncodeFrame(samples []float32, rate int) string {
	return base64.StdEncoding.EncodeToString(FloatToInt16PCM(Downsample(samples, rate, InputSampleRate)))
}

// DecodeChunk turns a base64 PCM16 chunk into float samples.
func DecodeChunk(data string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio chunk: %w", err)
	}
	return Int16PCMToFloat(raw), nil
}

// RMS returns the root-mean-square energy of the samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Package containerprobe reads the video track of MP4 and QuickTime files.
package containerprobe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecMJPEG   Codec = "mjpeg"
	CodecUnknown Codec = "unknown"
)

// ErrNoVideoTrack is returned when the container has no video track.
var ErrNoVideoTrack = errors.New("containerprobe: no video track found")

// Info describes the video track of a container.
type Info struct {
	Codec       Codec  `json:"codec"`
	SampleEntry string `json:"sample_entry"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Fragmented  bool   `json:"fragmented"`
	Samples     int    `json:"samples"`
	Timescale   uint32 `json:"timescale"`
	Duration    uint64 `json:"duration"` // In Timescale units
}

// Seconds returns the track duration in seconds.
func (i Info) Seconds() float64 {
	if i.Timescale == 0 {
		return 0
	}
	return float64(i.Duration) / float64(i.Timescale)
}

// Rat returns the exact track duration in seconds.
func (i Info) Rat() *big.Rat {
	if i.Timescale == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(
		new(big.Int).SetUint64(i.Duration),
		new(big.Int).SetUint64(uint64(i.Timescale)),
	)
}

// ProbeFile probes the container at path.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeBytes probes an in-memory container.
func ProbeBytes(data []byte) (Info, error) {
	return ProbeReader(bytes.NewReader(data))
}

// ProbeReader probes a container read from r.
func ProbeReader(r io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("seek: %w", err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeFragmented(mp4File *mp4.File) (Info, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return Info{}, ErrNoVideoTrack
	}

	trak := findVideoTrack(mp4File.Init.Moov.Traks)
	if trak == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := trackInfo(trak)
	info.Fragmented = true

	var trex *mp4.TrexBox
	if mvex := mp4File.Init.Moov.Mvex; mvex != nil {
		trex = mvex.Trex
	}

	trackID := trak.Tkhd.TrackID
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				for _, trun := range traf.Truns {
					for _, s := range trun.Samples {
						info.Samples++
						info.Duration += uint64(sampleDuration(s.Dur, traf.Tfhd, trex))
					}
				}
			}
		}
	}
	return info, nil
}

func sampleDuration(dur uint32, tfhd *mp4.TfhdBox, trex *mp4.TrexBox) uint32 {
	if dur != 0 {
		return dur
	}
	if tfhd != nil && tfhd.HasDefaultSampleDuration() {
		return tfhd.DefaultSampleDuration
	}
	if trex != nil {
		return trex.DefaultSampleDuration
	}
	return 0
}

func probeProgressive(mp4File *mp4.File) (Info, error) {
	if mp4File.Moov == nil {
		return Info{}, ErrNoVideoTrack
	}

	trak := findVideoTrack(mp4File.Moov.Traks)
	if trak == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := trackInfo(trak)
	if stts := trak.Mdia.Minf.Stbl.Stts; stts != nil {
		for i, count := range stts.SampleCount {
			info.Samples += int(count)
			info.Duration += uint64(count) * uint64(stts.SampleTimeDelta[i])
		}
	} else if trak.Mdia.Mdhd != nil {
		info.Duration = trak.Mdia.Mdhd.Duration
	}
	return info, nil
}

func findVideoTrack(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
			continue
		}
		// Only process video tracks
		if trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		return trak
	}
	return nil
}

func trackInfo(trak *mp4.TrakBox) Info {
	info := Info{Codec: CodecUnknown}
	if trak.Mdia.Mdhd != nil {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}
	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		codec := codecFromSampleEntry(child.Type())
		if codec != CodecUnknown {
			info.Codec = codec
			info.SampleEntry = child.Type()
			break
		}
	}
	return info
}

func codecFromSampleEntry(boxType string) Codec {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "jpeg", "mjpa", "mjpb":
		return CodecMJPEG
	default:
		return CodecUnknown
	}
}

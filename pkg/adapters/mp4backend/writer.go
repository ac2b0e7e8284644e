package mp4backend

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/hashicorp/go-multierror"

	"github.com/user/framereel/pkg/adapters/pixelpool"
	"github.com/user/framereel/pkg/ports"
)

const trackID = 1

// writer streams a fragmented MP4. The track timescale equals the frame
// rate so every sample lasts exactly one tick.
type writer struct {
	f         *os.File
	out       *bufio.Writer
	width     int
	height    int
	timescale uint32
	perFrag   int
	quality   int

	samples []mp4.FullSample
	seq     uint32
	frames  int
	closed  bool
}

func newWriter(f *os.File, settings ports.SessionSettings, perFrag, quality int) *writer {
	return &writer{
		f:         f,
		out:       bufio.NewWriter(f),
		width:     settings.Width,
		height:    settings.Height,
		timescale: uint32(settings.FrameRate),
		perFrag:   perFrag,
		quality:   quality,
		seq:       1,
	}
}

// writeInit writes ftyp and moov.
func (w *writer) writeInit() error {
	initSeg := mp4.CreateEmptyInit()
	initSeg.AddEmptyTrack(w.timescale, "video", "und")

	trak := initSeg.Moov.Trak

	jpeg := mp4.CreateVisualSampleEntryBox("jpeg", uint16(w.width), uint16(w.height), nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(jpeg)

	trak.Tkhd.Width = mp4.Fixed32(w.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(w.height << 16)

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "mp41"})
	if err := ftyp.Encode(w.out); err != nil {
		return fmt.Errorf("encode ftyp: %w", err)
	}
	if err := initSeg.Moov.Encode(w.out); err != nil {
		return fmt.Errorf("encode moov: %w", err)
	}
	return nil
}

func (w *writer) WriteFrame(buf ports.PixelBuffer, pts ports.PresentationTime) error {
	if w.closed {
		return ErrClosed
	}

	data, err := pixelpool.EncodeJPEG(buf, w.quality)
	if err != nil {
		return err
	}

	w.samples = append(w.samples, mp4.FullSample{
		Sample: mp4.Sample{
			Flags: mp4.SyncSampleFlags,
			Size:  uint32(len(data)),
			Dur:   1,
		},
		DecodeTime: w.decodeTime(pts),
		Data:       data,
	})
	w.frames++

	if len(w.samples) >= w.perFrag {
		return w.flush()
	}
	return nil
}

// decodeTime converts pts to track ticks.
func (w *writer) decodeTime(pts ports.PresentationTime) uint64 {
	if uint32(pts.Timescale) == w.timescale {
		return uint64(pts.Value)
	}
	return uint64(pts.Value) * uint64(w.timescale) / uint64(pts.Timescale)
}

// flush writes the pending samples as one moof/mdat pair.
func (w *writer) flush() error {
	if len(w.samples) == 0 {
		return nil
	}

	frag, err := mp4.CreateFragment(w.seq, trackID)
	if err != nil {
		return fmt.Errorf("create fragment: %w", err)
	}
	for _, s := range w.samples {
		frag.AddFullSample(s)
	}
	if err := frag.Encode(w.out); err != nil {
		return fmt.Errorf("encode fragment %d: %w", w.seq, err)
	}

	w.seq++
	w.samples = w.samples[:0]
	return nil
}

func (w *writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	var result error
	if err := w.flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.out.Flush(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flush output: %w", err))
	}
	if err := w.f.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close output: %w", err))
	}
	return result
}

// Abort closes the file without writing pending samples.
func (w *writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var result error
	if err := w.out.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.f.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// Command shn2wav decodes Shorten (.shn) files to WAV.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"

	"github.com/birchlabs/shn"
)

func main() {
	var force bool
	flag.BoolVar(&force, "f", false, "force overwrite")
	flag.Parse()
	for _, shnPath := range flag.Args() {
		if err := shn2wav(shnPath, force); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func shn2wav(shnPath string, force bool) error {
	r, err := shn.Open(shnPath)
	if err != nil {
		return errors.WithStack(err)
	}

	info := r.Info()
	wavPath := pathutil.TrimExt(shnPath) + ".wav"
	if !force && osutil.Exists(wavPath) {
		return errors.Errorf("WAV file %q already present; use -f flag to force overwrite", wavPath)
	}
	w, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer w.Close()

	enc := wav.NewEncoder(w, info.SampleRate, info.BitsPerSample, info.Channels, 1)
	defer enc.Close()

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: info.Channels,
			SampleRate:  info.SampleRate,
		},
		SourceBitDepth: info.BitsPerSample,
	}

	const flushEvery = 4096
	buf.Data = make([]int, 0, flushEvery)
	for {
		s, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WithStack(err)
		}
		buf.Data = append(buf.Data, int(s))
		if len(buf.Data) == flushEvery {
			if err := enc.Write(buf); err != nil {
				return errors.WithStack(err)
			}
			buf.Data = buf.Data[:0]
		}
	}
	if len(buf.Data) > 0 {
		if err := enc.Write(buf); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

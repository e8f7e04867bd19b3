package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/lambertjamesd/musyxconv/container"
	"github.com/lambertjamesd/musyxconv/song"
)

var errNoSongs = errors.New("no songs found")

type songResult struct {
	version int
	big     bool
	err     error
}

func byteOrderName(big bool) string {
	if big {
		return "big endian"
	}

	return "little endian"
}

// runSong2Mid converts every song of a container, or one loose song file,
// into a .mid file next to it or in the given directory.
func runSong2Mid(opts *options, inputs []string, out io.Writer) error {
	var input = inputs[0]
	var outDir = filepath.Dir(input)

	if len(inputs) > 1 {
		outDir = inputs[1]
	}

	songs, err := container.LoadSongs(input)

	if err != nil {
		return err
	}

	if len(songs) == 0 {
		return fmt.Errorf("%s: %w", input, errNoSongs)
	}

	if err = ensureDir(outDir); err != nil {
		return err
	}

	var results = make([]songResult, len(songs))
	var converters errgroup.Group
	converters.SetLimit(opts.jobs)

	for i, named := range songs {
		converters.Go(func() error {
			midiData, version, big, err := song.SongToMIDI(named.Song.Data)

			if err != nil {
				results[i].err = err
				return nil
			}

			results[i] = songResult{version: version, big: big}
			return os.WriteFile(filepath.Join(outDir, safeName(named.Name)+".mid"), midiData, 0664)
		})
	}

	if err = converters.Wait(); err != nil {
		return err
	}

	var r report
	var converted = 0
	r.title("%s", input)
	r.section("Songs (%d)", len(songs))

	for i, named := range songs {
		if results[i].err != nil {
			r.failure(named.Name, results[i].err)
			continue
		}

		converted++
		r.item(named.Name+".mid", fmt.Sprintf("(version %d, %s)", results[i].version, byteOrderName(results[i].big)))
	}

	if err = r.writeTo(out); err != nil {
		return err
	}

	if converted == 0 {
		return fmt.Errorf("%s: none of %d songs converted: %w", input, len(songs), results[0].err)
	}

	return nil
}

func runMid2Song(opts *options, inputs []string, out io.Writer) error {
	var input = inputs[0]
	var output = inputs[1]

	midiData, err := os.ReadFile(input)

	if err != nil {
		return err
	}

	songData, err := song.MIDIToSong(midiData, opts.songVersion, !opts.littleEndian)

	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	if err = os.WriteFile(output, songData, 0664); err != nil {
		return err
	}

	var r report
	r.title("%s", output)
	r.field("Version", fmt.Sprintf("%d", opts.songVersion))
	r.field("Byte order", byteOrderName(!opts.littleEndian))
	r.field("Size", fmt.Sprintf("%d bytes", len(songData)))
	return r.writeTo(out)
}

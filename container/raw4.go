package container

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
)

type chunkKind int

const (
	chunkProj chunkKind = iota
	chunkPool
	chunkSdir
	chunkSamp
)

var chunkSuffixes = [4][]string{
	chunkProj: {".proj", ".pro"},
	chunkPool: {".pool", ".poo"},
	chunkSdir: {".sdir", ".sdi"},
	chunkSamp: {".samp", ".sam"},
}

var songSuffixes = []string{".son", ".sng"}

func hasSuffix(path string, suffixes []string) bool {
	var ext = filepath.Ext(path)

	for _, suffix := range suffixes {
		if strings.EqualFold(ext, suffix) {
			return true
		}
	}

	return false
}

func isChunkFile(path string) bool {
	for _, suffixes := range chunkSuffixes {
		if hasSuffix(path, suffixes) {
			return true
		}
	}

	return false
}

// IsSongFile reports whether path names a loose song.
func IsSongFile(path string) bool {
	return hasSuffix(path, songSuffixes)
}

func baseName(path string) string {
	var base = filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// findRaw4 locates the four sibling chunk files of path. ok is false unless
// all four exist.
func findRaw4(path string) (paths [4]string, ok bool) {
	var dir = filepath.Dir(path)
	var base = baseName(path)

	entries, err := os.ReadDir(dir)

	if err != nil {
		return paths, false
	}

	var found = 0

	for kind, suffixes := range chunkSuffixes {
		for _, entry := range entries {
			if entry.IsDir() || paths[kind] != "" {
				continue
			}

			for _, suffix := range suffixes {
				if strings.EqualFold(entry.Name(), base+suffix) {
					paths[kind] = filepath.Join(dir, entry.Name())
					found++
					break
				}
			}
		}
	}

	return paths, found == len(chunkSuffixes)
}

// sniffFormat guesses the platform from the layout of the first sdir
// record.
func sniffFormat(sdir []byte) DataFormat {
	if len(sdir) >= 12 && binary.BigEndian.Uint32(sdir[8:12]) == 0 {
		return FormatGCN
	}

	if len(sdir) >= 10 && sdir[9] == 0 {
		return FormatN64
	}

	return FormatPC
}

func loadRaw4(path string) ([]Group, error) {
	paths, ok := findRaw4(path)

	if !ok {
		return nil, nil
	}

	var chunks [4][]byte

	for kind, chunkPath := range paths {
		data, err := os.ReadFile(chunkPath)

		if err != nil {
			return nil, err
		}

		chunks[kind] = data
	}

	var group = &GroupData{
		Proj:   chunks[chunkProj],
		Pool:   chunks[chunkPool],
		Sdir:   chunks[chunkSdir],
		Samp:   chunks[chunkSamp],
		Format: sniffFormat(chunks[chunkSdir]),
	}

	return []Group{newGroup(baseName(path), group)}, nil
}

package container

import (
	"fmt"
	"os"
)

type format struct {
	kind      Type
	validate  func(data []byte) bool
	load      func(data []byte) ([]Group, error)
	loadSongs func(data []byte) ([]NamedSong, error)
}

// formats is checked in order and the first validator to accept wins.
// Rogue Squadron 2 and 3 share a header; a table walked with the wrong
// record size fails on the bytes after its terminator.
var formats = []format{
	{MetroidPrime, validateMP1, loadMP1, loadPakSongs},
	{MetroidPrime2, validateMP2, loadMP2, loadPakSongs},
	{RogueSquadronPC, validateRS1PC, loadRS1PC, loadRS1PCSongs},
	{RogueSquadronN64, validateRS1N64, loadRS1N64, loadRS1N64Songs},
	{RogueSquadron2, validateRS2, loadRS2, loadRS2Songs},
	{RogueSquadron3, validateRS3, loadRS3, loadRS3Songs},
}

func findFormat(kind Type) *format {
	for i := range formats {
		if formats[i].kind == kind {
			return &formats[i]
		}
	}

	return nil
}

// DetectData classifies an in-memory container image.
func DetectData(data []byte) Type {
	for _, candidate := range formats {
		if candidate.validate(data) {
			return candidate.kind
		}

		logger.Printf("not %s", candidate.kind)
	}

	return Invalid
}

func DetectContainerType(path string) (Type, error) {
	if isChunkFile(path) {
		if _, ok := findRaw4(path); ok {
			return Raw4, nil
		}

		return Invalid, nil
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return Invalid, err
	}

	return DetectData(data), nil
}

// LoadData extracts the groups of an in-memory image of the given type.
func LoadData(data []byte, kind Type) ([]Group, error) {
	var entry = findFormat(kind)

	if entry == nil {
		return nil, nil
	}

	groups, err := entry.load(data)

	if err != nil {
		logger.Printf("%s: %v", kind, err)
		return nil, err
	}

	return groups, nil
}

// LoadContainer detects and extracts every group of path. Malformed
// containers give no groups and an error wrapping ErrMalformedContainer.
func LoadContainer(path string) ([]Group, Type, error) {
	kind, err := DetectContainerType(path)

	if err != nil || kind == Invalid {
		return nil, kind, err
	}

	if kind == Raw4 {
		groups, err := loadRaw4(path)
		return groups, kind, err
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, kind, err
	}

	groups, err := LoadData(data, kind)

	if err != nil {
		return nil, kind, fmt.Errorf("%s: %w", path, err)
	}

	return groups, kind, nil
}

// LoadSongs extracts the songs of a container, or the single song of a
// loose song file.
func LoadSongs(path string) ([]NamedSong, error) {
	if IsSongFile(path) {
		data, err := os.ReadFile(path)

		if err != nil {
			return nil, err
		}

		return []NamedSong{{baseName(path), newSongData(data)}}, nil
	}

	kind, err := DetectContainerType(path)

	if err != nil {
		return nil, err
	}

	var entry = findFormat(kind)

	if entry == nil {
		return nil, nil
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	songs, err := entry.loadSongs(data)

	if err != nil {
		logger.Printf("%s songs: %v", kind, err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return songs, nil
}

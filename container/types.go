// Package container detects game audio containers and extracts MusyX
// groups (proj, pool, sdir, samp quartets) and songs from them.
package container

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/lambertjamesd/musyxconv/identity"
)

var ErrMalformedContainer = errors.New("malformed container")

type Type int

const (
	Invalid Type = iota
	Raw4
	MetroidPrime
	MetroidPrime2
	RogueSquadronPC
	RogueSquadronN64
	RogueSquadron2
	RogueSquadron3
)

func (t Type) String() string {
	switch t {
	case Invalid:
		return "Invalid"
	case Raw4:
		return "Raw4"
	case MetroidPrime:
		return "Metroid Prime"
	case MetroidPrime2:
		return "Metroid Prime 2"
	case RogueSquadronPC:
		return "Rogue Squadron (PC)"
	case RogueSquadronN64:
		return "Rogue Squadron (N64)"
	case RogueSquadron2:
		return "Rogue Squadron 2"
	case RogueSquadron3:
		return "Rogue Squadron 3"
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// DataFormat tags the platform a group's sample data was built for.
type DataFormat int

const (
	FormatGCN DataFormat = iota
	FormatN64
	FormatPC
)

func (format DataFormat) String() string {
	switch format {
	case FormatN64:
		return "N64"
	case FormatPC:
		return "PC"
	}

	return "GCN"
}

type GroupData struct {
	Proj   []byte
	Pool   []byte
	Sdir   []byte
	Samp   []byte
	Format DataFormat
}

// Complete reports whether all four chunks are present.
func (data *GroupData) Complete() bool {
	return len(data.Proj) > 0 && len(data.Pool) > 0 && len(data.Sdir) > 0 && len(data.Samp) > 0
}

func (data *GroupData) Size() int {
	return len(data.Proj) + len(data.Pool) + len(data.Sdir) + len(data.Samp)
}

// Group is one named sound group. Id is NoId unless the container stores
// the group id outside the proj chunk.
type Group struct {
	Name string
	Id   identity.GroupId
	Data *GroupData
}

func newGroup(name string, data *GroupData) Group {
	return Group{Name: name, Id: identity.GroupId(identity.NoId), Data: data}
}

// SongData is a raw song buffer. GroupId and SetupId are NoId when the
// container does not record them.
type SongData struct {
	Data    []byte
	GroupId identity.GroupId
	SetupId identity.SongId
}

func newSongData(data []byte) *SongData {
	return &SongData{
		Data:    data,
		GroupId: identity.GroupId(identity.NoId),
		SetupId: identity.SongId(identity.NoId),
	}
}

type NamedSong struct {
	Name string
	Song *SongData
}

var logger = log.New(io.Discard, "", 0)

// SetLogger routes container diagnostics to l. Passing nil silences them.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}

	logger = l
}

package identity

import "fmt"

// ObjectId is the 16-bit identifier shared by every object kind in a
// project. NoId marks an unassigned reference.
type ObjectId uint16

const NoId ObjectId = 0xFFFF

func (id ObjectId) IsValid() bool {
	return id != NoId
}

func (id ObjectId) String() string {
	if id == NoId {
		return "none"
	}

	return fmt.Sprintf("%04X", uint16(id))
}

type Kind uint8

const (
	KindSoundMacro Kind = iota
	KindSample
	KindTable
	KindKeymap
	KindLayers
	KindSong
	KindSFX
	KindGroup

	kindCount
)

var kindNames = [kindCount]string{
	"SoundMacro",
	"Sample",
	"Table",
	"Keymap",
	"Layers",
	"Song",
	"SFX",
	"Group",
}

var kindTemplates = [kindCount]string{
	"macro%04X",
	"sample%04X",
	"table%04X",
	"keymap%04X",
	"layers%04X",
	"song%04X",
	"sfx%04X",
	"group%04X",
}

func (kind Kind) String() string {
	if kind >= kindCount {
		return fmt.Sprintf("Kind(%d)", uint8(kind))
	}

	return kindNames[kind]
}

// TypedId is implemented by every kind-specific id type.
type TypedId interface {
	~uint16
	Kind() Kind
}

type SoundMacroId ObjectId
type SampleId ObjectId
type TableId ObjectId
type KeymapId ObjectId
type LayersId ObjectId
type SongId ObjectId
type SFXId ObjectId
type GroupId ObjectId

func (SoundMacroId) Kind() Kind { return KindSoundMacro }
func (SampleId) Kind() Kind     { return KindSample }
func (TableId) Kind() Kind      { return KindTable }
func (KeymapId) Kind() Kind     { return KindKeymap }
func (LayersId) Kind() Kind     { return KindLayers }
func (SongId) Kind() Kind       { return KindSong }
func (SFXId) Kind() Kind        { return KindSFX }
func (GroupId) Kind() Kind      { return KindGroup }

func (id SongId) IsValid() bool  { return ObjectId(id).IsValid() }
func (id GroupId) IsValid() bool { return ObjectId(id).IsValid() }

func (id SongId) String() string  { return ObjectId(id).String() }
func (id GroupId) String() string { return ObjectId(id).String() }

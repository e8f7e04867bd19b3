package identity

import (
	"errors"
	"fmt"
	"sort"
)

var ErrNameTaken = errors.New("name already registered")
var ErrIdsExhausted = errors.New("no free object ids")
var ErrUnknownName = errors.New("unknown name")
var ErrUnknownId = errors.New("unknown id")

// NameDB keeps a bijection between names and ids of a single kind.
// It is not synchronised; see NameContext.
type NameDB struct {
	kind       Kind
	stringToId map[string]ObjectId
	idToString map[ObjectId]string
}

func NewNameDB(kind Kind) *NameDB {
	return &NameDB{
		kind,
		make(map[string]ObjectId),
		make(map[ObjectId]string),
	}
}

func (db *NameDB) Kind() Kind {
	return db.kind
}

func (db *NameDB) Len() int {
	return len(db.idToString)
}

// GenerateId returns the lowest id without a registered name.
func (db *NameDB) GenerateId() (ObjectId, error) {
	for id := ObjectId(0); id != NoId; id++ {
		if _, used := db.idToString[id]; !used {
			return id, nil
		}
	}

	return NoId, ErrIdsExhausted
}

func (db *NameDB) GenerateName(id ObjectId) string {
	return fmt.Sprintf(kindTemplates[db.kind], uint16(id))
}

// GenerateDefaultName returns "New<Kind>" or the first free numbered variant.
func (db *NameDB) GenerateDefaultName() string {
	var base = "New" + db.kind.String()

	if _, taken := db.stringToId[base]; !taken {
		return base
	}

	for i := 1; ; i++ {
		var candidate = fmt.Sprintf("%s%d", base, i)

		if _, taken := db.stringToId[candidate]; !taken {
			return candidate
		}
	}
}

// RegisterPair binds name and id, dropping any previous binding of either.
func (db *NameDB) RegisterPair(name string, id ObjectId) error {
	if id == NoId {
		return fmt.Errorf("register %q: %w", name, ErrUnknownId)
	}

	if oldName, has := db.idToString[id]; has {
		delete(db.stringToId, oldName)
	}

	if oldId, has := db.stringToId[name]; has {
		delete(db.idToString, oldId)
	}

	db.stringToId[name] = id
	db.idToString[id] = name

	return nil
}

func (db *NameDB) Remove(id ObjectId) {
	name, has := db.idToString[id]

	if !has {
		return
	}

	delete(db.stringToId, name)
	delete(db.idToString, id)
}

func (db *NameDB) Rename(id ObjectId, name string) error {
	oldName, has := db.idToString[id]

	if !has {
		return fmt.Errorf("rename %s to %q: %w", id, name, ErrUnknownId)
	}

	if oldName == name {
		return nil
	}

	if _, taken := db.stringToId[name]; taken {
		return fmt.Errorf("rename %s to %q: %w", id, name, ErrNameTaken)
	}

	delete(db.stringToId, oldName)
	db.stringToId[name] = id
	db.idToString[id] = name

	return nil
}

func (db *NameDB) ResolveNameFromId(id ObjectId) (string, error) {
	name, has := db.idToString[id]

	if !has {
		return "", fmt.Errorf("%s %s: %w", db.kind, id, ErrUnknownId)
	}

	return name, nil
}

func (db *NameDB) ResolveIdFromName(name string) (ObjectId, error) {
	id, has := db.stringToId[name]

	if !has {
		return NoId, fmt.Errorf("%s %q: %w", db.kind, name, ErrUnknownName)
	}

	return id, nil
}

// Ids lists the registered ids in ascending order.
func (db *NameDB) Ids() []ObjectId {
	var result = make([]ObjectId, 0, len(db.idToString))

	for id := range db.idToString {
		result = append(result, id)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})

	return result
}

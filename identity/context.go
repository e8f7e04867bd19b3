package identity

import "fmt"

// NameContext carries the NameDB used for each object kind. Code that needs
// to turn ids into names receives the context explicitly, so two groups can
// be resolved side by side without sharing mutable global state. A context
// and its databases belong to one goroutine at a time.
type NameContext struct {
	dbs [kindCount]*NameDB
}

// NewNameContext creates a context with an empty database for every kind.
func NewNameContext() *NameContext {
	var ctx NameContext

	for kind := Kind(0); kind < kindCount; kind++ {
		ctx.dbs[kind] = NewNameDB(kind)
	}

	return &ctx
}

func (ctx *NameContext) DB(kind Kind) *NameDB {
	if kind >= kindCount {
		return nil
	}

	return ctx.dbs[kind]
}

// SetDB swaps in db for its kind and returns the database it replaced.
func (ctx *NameContext) SetDB(db *NameDB) *NameDB {
	var previous = ctx.dbs[db.kind]
	ctx.dbs[db.kind] = db
	return previous
}

func dbFor[T TypedId](ctx *NameContext, id T) (*NameDB, error) {
	var db = ctx.DB(id.Kind())

	if db == nil {
		return nil, fmt.Errorf("no name database for %s", id.Kind())
	}

	return db, nil
}

func ResolveName[T TypedId](ctx *NameContext, id T) (string, error) {
	db, err := dbFor(ctx, id)

	if err != nil {
		return "", err
	}

	return db.ResolveNameFromId(ObjectId(id))
}

func ResolveId[T TypedId](ctx *NameContext, name string) (T, error) {
	var zero T
	db, err := dbFor(ctx, zero)

	if err != nil {
		return T(NoId), err
	}

	id, err := db.ResolveIdFromName(name)
	return T(id), err
}

// Register assigns a fresh id of kind T to name, generating the name when it
// is empty.
func Register[T TypedId](ctx *NameContext, name string) (T, error) {
	var zero T
	db, err := dbFor(ctx, zero)

	if err != nil {
		return T(NoId), err
	}

	id, err := db.GenerateId()

	if err != nil {
		return T(NoId), err
	}

	if name == "" {
		name = db.GenerateName(id)
	}

	if _, taken := db.stringToId[name]; taken {
		return T(NoId), fmt.Errorf("register %q: %w", name, ErrNameTaken)
	}

	return T(id), db.RegisterPair(name, id)
}

package identity

import (
	"errors"
	"sync"
	"testing"
)

func TestContextResolvesPerKind(t *testing.T) {
	ctx := NewNameContext()

	macro, err := Register[SoundMacroId](ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	sample, err := Register[SampleId](ctx, "kick")
	if err != nil {
		t.Fatal(err)
	}

	if macro != 0 || sample != 0 {
		t.Fatalf("ids = %d, %d; both kinds should start at 0", macro, sample)
	}

	name, err := ResolveName(ctx, macro)
	if err != nil || name != "macro0000" {
		t.Errorf("ResolveName(macro) = %q, %v", name, err)
	}

	name, err = ResolveName(ctx, sample)
	if err != nil || name != "kick" {
		t.Errorf("ResolveName(sample) = %q, %v", name, err)
	}

	id, err := ResolveId[SampleId](ctx, "kick")
	if err != nil || id != sample {
		t.Errorf("ResolveId = %d, %v", id, err)
	}

	if _, err := ResolveId[SoundMacroId](ctx, "kick"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("kick must not resolve as a macro, err = %v", err)
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	ctx := NewNameContext()

	if _, err := Register[GroupId](ctx, "main"); err != nil {
		t.Fatal(err)
	}
	if _, err := Register[GroupId](ctx, "main"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("err = %v, want ErrNameTaken", err)
	}
	if ctx.DB(KindGroup).Len() != 1 {
		t.Errorf("Len = %d", ctx.DB(KindGroup).Len())
	}
}

func TestSetDBSwapsOnlyThatKind(t *testing.T) {
	ctx := NewNameContext()
	Register[SongId](ctx, "theme")

	other := NewNameDB(KindSong)
	other.RegisterPair("credits", 0)

	previous := ctx.SetDB(other)

	if name, _ := ResolveName(ctx, SongId(0)); name != "credits" {
		t.Errorf("after swap name = %q", name)
	}
	if name, _ := previous.ResolveNameFromId(0); name != "theme" {
		t.Errorf("previous db lost its entry: %q", name)
	}
}

func TestContextsAreIndependentAcrossGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := NewNameContext()
			for j := 0; j < 100; j++ {
				if _, err := Register[TableId](ctx, ""); err != nil {
					errs <- err
					return
				}
			}
			if ctx.DB(KindTable).Len() != 100 {
				errs <- errors.New("wrong count")
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lambertjamesd/musyxconv/container"
	"github.com/lambertjamesd/musyxconv/identity"
)

var errUnrecognized = errors.New("not a recognised container")

func ensureDir(dir string) error {
	dirState, err := os.Stat(dir)

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0777)
	} else if err != nil {
		return err
	} else if !dirState.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return nil
}

var unsafeNameChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

func safeName(name string) string {
	return unsafeNameChars.Replace(name)
}

func runDetect(opts *options, inputs []string, out io.Writer) error {
	var r report
	r.title("Containers")

	for _, input := range inputs {
		kind, err := container.DetectContainerType(input)

		if err != nil {
			r.failure(input, err)
			continue
		}

		r.field(input, kind.String())
	}

	return r.writeTo(out)
}

func writeGroup(outDir string, group container.Group) error {
	var chunks = []struct {
		ext  string
		data []byte
	}{
		{".proj", group.Data.Proj},
		{".pool", group.Data.Pool},
		{".sdir", group.Data.Sdir},
		{".samp", group.Data.Samp},
	}

	var base = filepath.Join(outDir, safeName(group.Name))

	for _, chunk := range chunks {
		if err := os.WriteFile(base+chunk.ext, chunk.data, 0664); err != nil {
			return err
		}
	}

	return nil
}

func groupLabel(names *identity.NameContext, id identity.GroupId) string {
	if !id.IsValid() {
		return "unknown group"
	}

	if name, err := identity.ResolveName(names, id); err == nil {
		return name
	}

	return names.DB(identity.KindGroup).GenerateName(identity.ObjectId(id))
}

// runExtract writes every group as a Raw4 quartet and every song as a loose
// .son file.
func runExtract(opts *options, inputs []string, out io.Writer) error {
	var input = inputs[0]
	var outDir = inputs[1]

	groups, kind, err := container.LoadContainer(input)

	if err != nil {
		return err
	}

	if kind == container.Invalid {
		return fmt.Errorf("%s: %w", input, errUnrecognized)
	}

	songs, err := container.LoadSongs(input)

	if err != nil {
		return err
	}

	if err = ensureDir(outDir); err != nil {
		return err
	}

	var loaded = identity.NewObjToken(groups, func(groups []container.Group) {
		if opts.verbose {
			log.Printf("released %d groups of %s", len(groups), input)
		}
	})

	var writers errgroup.Group
	writers.SetLimit(opts.jobs)

	for _, group := range loaded.Get() {
		var held = loaded.Ref()

		writers.Go(func() error {
			defer held.Release()
			return writeGroup(outDir, group)
		})
	}

	for _, named := range songs {
		writers.Go(func() error {
			return os.WriteFile(filepath.Join(outDir, safeName(named.Name)+".son"), named.Song.Data, 0664)
		})
	}

	err = writers.Wait()

	var r report
	r.title("%s", input)
	r.field("Type", kind.String())
	r.field("Output", outDir)

	r.section("Groups (%d)", len(groups))
	for _, group := range groups {
		r.item(group.Name, fmt.Sprintf("(%s, %d bytes)", group.Data.Format, group.Data.Size()))
	}

	var names = identity.NewNameContext()

	for _, group := range loaded.Get() {
		if group.Id.IsValid() {
			if regErr := names.DB(identity.KindGroup).RegisterPair(group.Name, identity.ObjectId(group.Id)); regErr != nil {
				log.Printf("group %s: %v", group.Name, regErr)
			}
		}
	}

	loaded.Release()

	r.section("Songs (%d)", len(songs))
	for _, named := range songs {
		r.item(named.Name, fmt.Sprintf("(%s, setup %s, %d bytes)",
			groupLabel(names, named.Song.GroupId), named.Song.SetupId, len(named.Song.Data)))
	}

	if err != nil {
		return err
	}

	return r.writeTo(out)
}

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lambertjamesd/musyxconv/container"
	"github.com/lambertjamesd/musyxconv/song"
)

func key(name string) tea.KeyMsg {
	switch name {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}

	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
}

func press(t *testing.T, m browseModel, name string) (browseModel, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(key(name))
	return next.(browseModel), cmd
}

func testBrowseModel(t *testing.T) browseModel {
	t.Helper()

	var dir = t.TempDir()
	writeTestMidi(t, filepath.Join(dir, "tune.mid"))

	midiData, err := os.ReadFile(filepath.Join(dir, "tune.mid"))
	if err != nil {
		t.Fatal(err)
	}

	songData, err := song.MIDIToSong(midiData, 1, true)
	if err != nil {
		t.Fatal(err)
	}

	var groups = []container.Group{{
		Name: "bank",
		Data: &container.GroupData{Proj: []byte("p"), Pool: []byte("o"), Sdir: []byte("d"), Samp: []byte("s")},
	}}
	var songs = []container.NamedSong{{Name: "tune", Song: &container.SongData{Data: songData}}}

	return newBrowseModel("game.pak", filepath.Join(dir, "out"), container.MetroidPrime, groups, songs)
}

func TestBrowseCursor(t *testing.T) {
	var m = testBrowseModel(t)

	m, _ = press(t, m, "up")
	if m.cursor != 0 {
		t.Errorf("cursor moved above the first entry: %d", m.cursor)
	}

	m, _ = press(t, m, "down")
	m, _ = press(t, m, "down")
	if m.cursor != 1 {
		t.Errorf("cursor = %d", m.cursor)
	}

	m, _ = press(t, m, "g")
	if m.cursor != 0 {
		t.Errorf("cursor after g = %d", m.cursor)
	}

	if _, cmd := press(t, m, "q"); cmd == nil {
		t.Error("q did not quit")
	}
}

func TestBrowseConvertsSelection(t *testing.T) {
	var m = testBrowseModel(t)

	m, cmd := press(t, m, "enter")
	if cmd == nil || !m.busy {
		t.Fatal("enter on a group started nothing")
	}

	if _, again := press(t, m, "enter"); again != nil {
		t.Error("second conversion started while busy")
	}

	next, _ := m.Update(cmd())
	m = next.(browseModel)

	if m.busy || m.status.err != nil || !strings.Contains(m.View(), "bank.proj") {
		t.Errorf("status = %+v", m.status)
	}

	m, _ = press(t, m, "down")
	m, cmd = press(t, m, "enter")
	next, _ = m.Update(cmd())
	m = next.(browseModel)

	if m.status.err != nil {
		t.Fatal(m.status.err)
	}

	if _, err := os.Stat(filepath.Join(m.outDir, "tune.mid")); err != nil {
		t.Error(err)
	}

	if !strings.Contains(m.View(), "version 1") {
		t.Errorf("view = %q", m.View())
	}
}

func TestBrowseScrollsWithCursor(t *testing.T) {
	var groups = make([]container.Group, 20)
	for i := range groups {
		groups[i] = container.Group{Name: "g", Data: &container.GroupData{}}
	}

	var m = newBrowseModel("x", "out", container.Raw4, groups, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(browseModel)

	for i := 0; i < 15; i++ {
		m, _ = press(t, m, "down")
	}

	first, last := m.visibleRange()
	if last-first != 4 || m.cursor < first || m.cursor >= last {
		t.Errorf("range %d-%d with cursor %d", first, last, m.cursor)
	}
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lambertjamesd/musyxconv/container"
	"github.com/lambertjamesd/musyxconv/song"
)

var (
	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// browseEntry is one selectable row, either a group or a song.
type browseEntry struct {
	group *container.Group
	song  *container.NamedSong
}

func (entry browseEntry) label() string {
	if entry.group != nil {
		return fmt.Sprintf("group %s (%s, %d bytes)", entry.group.Name, entry.group.Data.Format, entry.group.Data.Size())
	}

	return fmt.Sprintf("song  %s (%d bytes)", entry.song.Name, len(entry.song.Song.Data))
}

type convertedMsg struct {
	text string
	err  error
}

type browseModel struct {
	input   string
	outDir  string
	kind    container.Type
	entries []browseEntry

	cursor int
	busy   bool
	status convertedMsg

	width  int
	height int
}

func newBrowseModel(input string, outDir string, kind container.Type, groups []container.Group, songs []container.NamedSong) browseModel {
	var m = browseModel{input: input, outDir: outDir, kind: kind}

	for i := range groups {
		m.entries = append(m.entries, browseEntry{group: &groups[i]})
	}

	for i := range songs {
		m.entries = append(m.entries, browseEntry{song: &songs[i]})
	}

	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case convertedMsg:
		m.busy = false
		m.status = msg
	}

	return m, nil
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.entries)-1, 0)
	case "enter":
		if m.busy || len(m.entries) == 0 {
			break
		}

		m.busy = true
		return m, convertEntry(m.outDir, m.entries[m.cursor])
	}

	return m, nil
}

// convertEntry writes a group as its quartet or a song as a .mid file.
func convertEntry(outDir string, entry browseEntry) tea.Cmd {
	return func() tea.Msg {
		if err := ensureDir(outDir); err != nil {
			return convertedMsg{err: err}
		}

		if entry.group != nil {
			if err := writeGroup(outDir, *entry.group); err != nil {
				return convertedMsg{err: err}
			}

			return convertedMsg{text: "wrote " + safeName(entry.group.Name) + ".proj .pool .sdir .samp"}
		}

		midiData, version, big, err := song.SongToMIDI(entry.song.Song.Data)

		if err != nil {
			return convertedMsg{err: fmt.Errorf("%s: %w", entry.song.Name, err)}
		}

		var name = safeName(entry.song.Name) + ".mid"

		if err = os.WriteFile(filepath.Join(outDir, name), midiData, 0664); err != nil {
			return convertedMsg{err: err}
		}

		return convertedMsg{text: fmt.Sprintf("wrote %s (version %d, %s)", name, version, byteOrderName(big))}
	}
}

// visibleRange keeps the cursor on screen when the list is taller than the
// terminal.
func (m browseModel) visibleRange() (int, int) {
	var rows = len(m.entries)

	if m.height > 0 {
		rows = max(m.height-6, 1)
	}

	if rows >= len(m.entries) {
		return 0, len(m.entries)
	}

	var first = min(max(m.cursor-rows/2, 0), len(m.entries)-rows)
	return first, first + rows
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", m.input, m.kind)))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("output: " + m.outDir))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString("  nothing to convert\n")
	}

	first, last := m.visibleRange()

	for i := first; i < last; i++ {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + m.entries[i].label()))
		} else {
			b.WriteString("  " + m.entries[i].label())
		}

		b.WriteString("\n")
	}

	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(faintStyle.Render("converting..."))
	case m.status.err != nil:
		b.WriteString(failStyle.Render(m.status.err.Error()))
	case m.status.text != "":
		b.WriteString(doneStyle.Render(m.status.text))
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("↑/↓:Select  enter:Convert  q:Quit"))
	b.WriteString("\n")

	return b.String()
}

// runBrowse lists a container's groups and songs and converts the selected
// entry on enter.
func runBrowse(opts *options, inputs []string, out io.Writer) error {
	var input = inputs[0]
	var outDir = filepath.Dir(input)

	if len(inputs) > 1 {
		outDir = inputs[1]
	}

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

	var program = tea.NewProgram(newBrowseModel(input, outDir, kind, groups, songs), tea.WithAltScreen(), tea.WithOutput(out))
	_, err = program.Run()
	return err
}

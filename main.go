package main

import (
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/lambertjamesd/musyxconv/container"
	"github.com/lambertjamesd/musyxconv/surround"
)

type options struct {
	verbose      bool
	jobs         int
	songVersion  int
	littleEndian bool
	layout       surround.ChannelLayout
}

type command struct {
	name    string
	usage   string
	minArgs int
	run     func(opts *options, inputs []string, out io.Writer) error
}

var commands = []command{
	{"detect", "musyxconv detect file...", 1, runDetect},
	{"extract", "musyxconv extract container outdir", 2, runExtract},
	{"song2mid", "musyxconv song2mid container|song.son [outdir]", 1, runSong2Mid},
	{"mid2song", "musyxconv mid2song input.mid output.son [--song-version 0|1] [--little-endian]", 2, runMid2Song},
	{"dsp2wav", "musyxconv dsp2wav input.dsp output.wav|output.aif", 2, runDsp2Wav},
	{"wav2dsp", "musyxconv wav2dsp input.wav|.aif|.mp3|.flac output.dsp", 2, runWav2Dsp},
	{"browse", "musyxconv browse container [outdir]", 1, runBrowse},
	{"pan", "musyxconv pan x y z [--layout stereo|quad|5.1|7.1]", 3, runPan},
}

func findCommand(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}

	return nil
}

func usage() string {
	var lines = []string{"Usage"}

	for _, cmd := range commands {
		lines = append(lines, "\t"+cmd.usage)
	}

	return strings.Join(lines, "\n")
}

func newArgs() Args {
	var args = NewArgs(usage())
	args.AddFlagArg([]string{"-v", "--verbose"}, "log container diagnostics to stderr")
	args.AddIntegerArg([]string{"-j", "--jobs"}, "files converted at once", int64(runtime.NumCPU()), 1, 256)
	args.AddIntegerArg([]string{"--song-version"}, "song layout written by mid2song, 0 for N64 and 1 for GameCube", 1, 0, 1)
	args.AddFlagArg([]string{"--little-endian"}, "write mid2song output in PC byte order")
	args.AddChoiceArg([]string{"--layout"}, "speaker layout used by pan", "stereo", []string{"stereo", "quad", "5.1", "7.1"})
	return args
}

func parseOptions(named map[string]interface{}) *options {
	var result options

	result.verbose = named["--verbose"].(bool)
	result.jobs = int(named["--jobs"].(int64))
	result.songVersion = int(named["--song-version"].(int64))
	result.littleEndian = named["--little-endian"].(bool)
	result.layout, _ = surround.ParseLayout(named["--layout"].(string))

	return &result
}

func main() {
	var args = newArgs()

	named, inputs, errs := args.Parse(os.Args[1:])

	if len(errs) != 0 {
		for _, err := range errs {
			log.Println(err)
		}
		log.Fatal(args.CreateHelpMessage())
	}

	if len(inputs) == 0 {
		log.Fatal(args.CreateHelpMessage())
	}

	var cmd = findCommand(inputs[0])

	if cmd == nil {
		log.Fatalf("Unknown command '%s'\n%s", inputs[0], args.CreateHelpMessage())
	}

	if len(inputs)-1 < cmd.minArgs {
		log.Fatalf("Usage\n\t%s", cmd.usage)
	}

	var opts = parseOptions(named)

	if opts.verbose {
		container.SetLogger(log.New(os.Stderr, "container: ", 0))
	}

	if err := cmd.run(opts, inputs[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

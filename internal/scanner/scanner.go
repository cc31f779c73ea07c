// Package scanner picks Minecraft clients out of an OS process snapshot.
//
// Identification is heuristic: it matches argument substrings and is not a
// security boundary.
package scanner

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"weavectl/internal/model"
)

// Entry is one row of an OS process snapshot.
type Entry struct {
	PID       uint32
	StartTime uint64 // seconds since epoch
	Exe       string
	Cmdline   []string
	Cwd       string
	RSS       uint64
}

const (
	versionFlag = "--version"
	agentPrefix = "-javaagent:"
)

var javaLaunchers = mapset.NewThreadUnsafeSet("java", "javaw", "java.exe", "javaw.exe")

// GameMarkers are argument fragments that identify a game install.
var GameMarkers = []string{"minecraft"}

type rule struct {
	pattern string
	kind    model.ClientKind
}

// Evaluated in order; the first rule matching any argument wins.
var classifyRules = []rule{
	{"lunar", model.LunarClient},
	{"forge", model.Forge},
	{"labymod", model.Labymod},
	{"badlion", model.Badlion},
	{"feather", model.Feather},
}

// Options tune a scan.
type Options struct {
	// LoaderFile is the loader jar's file name, used to detect attached agents.
	LoaderFile string
}

// Scan returns a record for every entry that looks like a running client
// with a known version.
func Scan(entries []Entry, opts Options) []model.ProcessRecord {
	var out []model.ProcessRecord
	for _, e := range entries {
		rec, ok := Match(e, opts)
		if ok {
			out = append(out, rec)
		}
	}
	return out
}

// Match classifies a single entry.
func Match(e Entry, opts Options) (model.ProcessRecord, bool) {
	if !IsJavaLauncher(e.Exe) || !hasGameMarker(e.Cmdline) {
		return model.ProcessRecord{}, false
	}
	version, ok := Version(e.Cmdline)
	if !ok {
		return model.ProcessRecord{}, false
	}
	return model.ProcessRecord{
		PID:       e.PID,
		StartTime: e.StartTime,
		Info: model.ClientInfo{
			Client:  Classify(e.Cmdline),
			Version: version,
			Cmd:     append([]string(nil), e.Cmdline...),
			Cwd:     e.Cwd,
		},
		AgentAttached: AgentAttached(e.Cmdline, opts.LoaderFile),
	}, true
}

// IsJavaLauncher reports whether exe's file name is a JVM launcher. Both
// separators are honoured so Windows paths classify the same on any host.
func IsJavaLauncher(exe string) bool {
	if i := strings.LastIndexAny(exe, `/\`); i >= 0 {
		exe = exe[i+1:]
	}
	return javaLaunchers.Contains(exe)
}

func hasGameMarker(args []string) bool {
	for _, arg := range args {
		for _, marker := range GameMarkers {
			if strings.Contains(arg, marker) {
				return true
			}
		}
	}
	return false
}

// Classify returns the client kind for a command line.
func Classify(args []string) model.ClientKind {
	for _, r := range classifyRules {
		for _, arg := range args {
			if strings.Contains(arg, r.pattern) {
				return r.kind
			}
		}
	}
	return model.Vanilla
}

// Version returns the argument following the first --version flag.
func Version(args []string) (string, bool) {
	for i, arg := range args {
		if arg != versionFlag {
			continue
		}
		if i+1 >= len(args) {
			return "", false
		}
		return args[i+1], true
	}
	return "", false
}

// AgentAttached reports whether a -javaagent argument loads loaderFile.
func AgentAttached(args []string, loaderFile string) bool {
	if loaderFile == "" {
		return false
	}
	for _, arg := range args {
		if strings.HasPrefix(arg, agentPrefix) && strings.Contains(arg[len(agentPrefix):], loaderFile) {
			return true
		}
	}
	return false
}

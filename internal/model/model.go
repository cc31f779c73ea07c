package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ClientKind is the heuristically determined distribution of a game client.
type ClientKind int

const (
	Vanilla ClientKind = iota
	Forge
	LunarClient
	Labymod
	Badlion
	Feather
)

var clientKindNames = map[ClientKind]string{
	Vanilla:     "Vanilla",
	Forge:       "Forge",
	LunarClient: "LunarClient",
	Labymod:     "Labymod",
	Badlion:     "Badlion",
	Feather:     "Feather",
}

func (k ClientKind) String() string {
	if name, ok := clientKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ClientKind(%d)", int(k))
}

// ParseClientKind resolves a kind by name, case-insensitively.
func ParseClientKind(s string) (ClientKind, error) {
	s = strings.TrimSpace(s)
	for kind, name := range clientKindNames {
		if strings.EqualFold(name, s) {
			return kind, nil
		}
	}
	// "Lunar" is what older launch profiles carry.
	if strings.EqualFold(s, "lunar") {
		return LunarClient, nil
	}
	return Vanilla, fmt.Errorf("unknown client kind %q", s)
}

func (k ClientKind) MarshalText() ([]byte, error) {
	name, ok := clientKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown client kind %d", int(k))
	}
	return []byte(name), nil
}

func (k *ClientKind) UnmarshalText(b []byte) error {
	kind, err := ParseClientKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ClientInfo describes how a client was (or will be) started.
type ClientInfo struct {
	Client  ClientKind `json:"client" toml:"client"`
	Version string     `json:"version" toml:"version"`
	Cmd     []string   `json:"cmd" toml:"cmd"`
	Cwd     string     `json:"cwd" toml:"cwd"`
}

// ProcessRecord is a point-in-time view of a discovered game process.
type ProcessRecord struct {
	PID           uint32     `json:"pid"`
	StartTime     uint64     `json:"start_time"`
	Info          ClientInfo `json:"info"`
	AgentAttached bool       `json:"weave_attached"`
}

// ModConfig is the content of a mod's packaged weave.mod.json.
type ModConfig struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Authors     []string `json:"authors"`
}

const undefined = "undefined"

// DefaultModConfig is used for mods that ship no configuration.
func DefaultModConfig() ModConfig {
	return ModConfig{
		Name:        undefined,
		Version:     undefined,
		Description: undefined,
		Authors:     []string{},
	}
}

// ModProfileEntry references one jar inside the mods directory.
type ModProfileEntry struct {
	Config   *ModConfig `json:"config,omitempty" toml:"config,omitempty"`
	FileName string     `json:"file_name" toml:"file_name"`
}

// ModProfile is a named, ordered set of mods. Names are unique within the
// profile store that owns them.
type ModProfile struct {
	Name string            `json:"name" toml:"name"`
	Mods []ModProfileEntry `json:"mods" toml:"mods"`
}

// ErrInvalidModFile is returned for entries that do not name a plain file
// inside the mods directory.
var ErrInvalidModFile = errors.New("mod file name must be relative to the mods directory")

// ResolveMods returns the absolute path of every entry under modsDir.
func (p ModProfile) ResolveMods(modsDir string) ([]string, error) {
	out := make([]string, 0, len(p.Mods))
	for _, entry := range p.Mods {
		name := strings.TrimSpace(entry.FileName)
		if name == "" || filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidModFile, entry.FileName)
		}
		out = append(out, filepath.Join(modsDir, name))
	}
	return out, nil
}

// LaunchRequest is consumed once by the launcher.
type LaunchRequest struct {
	Name       string      `json:"name" toml:"name"`
	ClientInfo ClientInfo  `json:"mc_info" toml:"mc_info"`
	ModProfile *ModProfile `json:"mod_profile,omitempty" toml:"mod_profile,omitempty"`
}

// Analytics mirrors the launcher's analytics.json. It is never written here.
type Analytics struct {
	LaunchTimes       []uint32 `json:"launch_times"`
	TimePlayed        uint64   `json:"time_played"`
	AverageLaunchTime float32  `json:"average_launch_time"`
}

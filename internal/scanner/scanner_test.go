package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weavectl/internal/model"
)

var opts = Options{LoaderFile: "loader.jar"}

func TestScanFiltersNonJava(t *testing.T) {
	entries := []Entry{
		{PID: 1, Exe: "/usr/bin/python3", Cmdline: []string{"python3", "/home/u/.minecraft/x.py", "--version", "1.8.9"}},
		{PID: 2, Exe: `C:\Program Files\Java\bin\javaw.exe`, Cmdline: []string{"javaw.exe", `-Djava.library.path=C:\Users\u\AppData\Roaming\.minecraft\natives`, "--version", "1.8.9"}},
		{PID: 3, Exe: "/usr/lib/jvm/bin/java", Cmdline: []string{"java", "-jar", "/srv/other.jar", "--version", "2"}},
		{PID: 4, Exe: "/usr/lib/jvm/bin/javac", Cmdline: []string{"javac", ".minecraft", "--version", "1"}},
		{PID: 5, Exe: "", Cmdline: []string{"java", ".minecraft", "--version", "1"}},
	}

	recs := Scan(entries, opts)
	require.Len(t, recs, 1)
	assert.Equal(t, uint32(2), recs[0].PID)
	for _, r := range recs {
		assert.True(t, IsJavaLauncher(entries[r.PID-1].Exe))
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want model.ClientKind
	}{
		{"vanilla", []string{"java", "net.minecraft.client.main.Main"}, model.Vanilla},
		{"forge", []string{"java", "net.minecraftforge.fml.common.launcher.FMLTweaker"}, model.Forge},
		{"lunar before forge by position", []string{"java", "forge.jar", "com.moonsworth.lunar.genesis.Genesis"}, model.LunarClient},
		{"lunar first", []string{"java", "lunar", "forge"}, model.LunarClient},
		{"labymod", []string{"java", "net.labymod.main.Main"}, model.Labymod},
		{"forge over labymod", []string{"java", "labymod", "forge"}, model.Forge},
		{"badlion", []string{"java", "badlion"}, model.Badlion},
		{"feather", []string{"java", "feather-client"}, model.Feather},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.args))
		})
	}
}

func TestVersionPolicy(t *testing.T) {
	v, ok := Version([]string{"java", "--version", "1.8.9", "--version", "1.12"})
	assert.True(t, ok)
	assert.Equal(t, "1.8.9", v)

	_, ok = Version([]string{"java", "--gameDir", ".minecraft"})
	assert.False(t, ok)

	_, ok = Version([]string{"java", ".minecraft", "--version"})
	assert.False(t, ok)

	_, ok = Version([]string{"java", "--version=1.8.9"})
	assert.False(t, ok)
}

func TestScanDropsVersionless(t *testing.T) {
	entries := []Entry{
		{PID: 10, Exe: "/jvm/bin/java", Cmdline: []string{"java", ".minecraft"}},
		{PID: 11, Exe: "/jvm/bin/java", Cmdline: []string{"java", ".minecraft", "--version"}},
		{PID: 12, Exe: "/jvm/bin/java", Cmdline: []string{"java", ".minecraft", "--version", "1.8.9"}},
	}
	recs := Scan(entries, opts)
	require.Len(t, recs, 1)
	assert.Equal(t, uint32(12), recs[0].PID)
}

func TestMatchFields(t *testing.T) {
	e := Entry{
		PID:       42,
		StartTime: 1700000000,
		Exe:       "/jvm/bin/java",
		Cmdline:   []string{"java", "-javaagent:/home/u/.weave/loader.jar", "-Dfml=forge", "--gameDir", "/home/u/.minecraft", "--version", "1.8.9-forge"},
		Cwd:       "/home/u/.minecraft",
	}
	rec, ok := Match(e, opts)
	require.True(t, ok)
	assert.Equal(t, model.ProcessRecord{
		PID:       42,
		StartTime: 1700000000,
		Info: model.ClientInfo{
			Client:  model.Forge,
			Version: "1.8.9-forge",
			Cmd:     e.Cmdline,
			Cwd:     "/home/u/.minecraft",
		},
		AgentAttached: true,
	}, rec)

	rec.Info.Cmd[0] = "mutated"
	assert.Equal(t, "java", e.Cmdline[0])
}

func TestAgentAttached(t *testing.T) {
	assert.True(t, AgentAttached([]string{"java", "-javaagent:C:\\Users\\u\\.weave\\loader.jar"}, "loader.jar"))
	assert.False(t, AgentAttached([]string{"java", "-javaagent:/opt/other-agent.jar"}, "loader.jar"))
	assert.False(t, AgentAttached([]string{"java", "/home/u/.weave/loader.jar"}, "loader.jar"))
	assert.False(t, AgentAttached([]string{"java", "-javaagent:/x/loader.jar"}, ""))
}

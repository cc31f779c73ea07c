package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	weavev1 "weavectl/api/weave/v1"
	"weavectl/internal/launcher"
	"weavectl/internal/model"
)

// LoadProfile reads a launch request from a TOML file:
//
//	name = "pvp"
//
//	[mc_info]
//	client = "Forge"
//	version = "1.8.9"
//	cmd = ["java", "-Xmx2G", "net.minecraft.client.main.Main", "--version", "1.8.9"]
//	cwd = "/home/u/.minecraft"
//
//	[[mod_profile.mods]]
//	file_name = "freelook.jar"
//
// A relative cwd is resolved against the profile's directory.
func LoadProfile(path string) (model.LaunchRequest, error) {
	var req model.LaunchRequest
	md, err := toml.DecodeFile(path, &req)
	if err != nil {
		return req, fmt.Errorf("load profile %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return req, fmt.Errorf("load profile %s: unknown key %q", path, undecoded[0].String())
	}
	if len(req.ClientInfo.Cmd) == 0 {
		return req, fmt.Errorf("load profile %s: %w", path, launcher.ErrEmptyCommand)
	}
	if req.ClientInfo.Cwd != "" && !filepath.IsAbs(req.ClientInfo.Cwd) {
		req.ClientInfo.Cwd = filepath.Join(filepath.Dir(path), req.ClientInfo.Cwd)
	}
	return req, nil
}

// Launch asks the daemon to start a client with the loader attached.
func (a *App) Launch(ctx context.Context, req model.LaunchRequest, timeout time.Duration) (launcher.Instance, error) {
	var inst launcher.Instance
	if len(req.ClientInfo.Cmd) == 0 {
		return inst, launcher.ErrEmptyCommand
	}
	msg, err := weavev1.EncodeStruct(req)
	if err != nil {
		return inst, err
	}
	err = a.withClient(ctx, timeout, func(ctx context.Context, client weavev1.WeaveClient) error {
		resp, err := client.Launch(ctx, msg)
		if err != nil {
			return fmt.Errorf("daemon launch RPC failed: %w", err)
		}
		if resp == nil {
			return errors.New("daemon returned no instance")
		}
		return weavev1.DecodeStruct(resp, &inst)
	})
	return inst, err
}

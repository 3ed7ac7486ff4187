package deploy

import (
	"context"

	"github.com/cockroachdb/errors"

	"coopins.dev/deployctl/pkg/hookinstall"
)

// Hook returns the installer for the project's post-commit hook.
func (d *Deployer) Hook(ctx context.Context) *hookinstall.Installer {
	return &hookinstall.Installer{
		HooksDir: d.hooksDir(ctx),
		Source:   d.Config.HookSource(d.Root),
		Name:     d.Config.Hook.Name,
	}
}

// InstallHook installs the post-commit hook.
func (d *Deployer) InstallHook(ctx context.Context) (hookinstall.Result, error) {
	res, err := d.Hook(ctx).Install()
	if err != nil {
		if errors.IsAny(err, hookinstall.ErrHooksDirMissing, hookinstall.ErrSourceMissing, hookinstall.ErrInvalidScript) {
			err = precondition(err)
		}
		return res, err
	}
	return res, nil
}

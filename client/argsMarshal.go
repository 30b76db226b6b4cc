package ustarexecclient

import (
	"github.com/polydawn/ustar/transmat/util"
	"github.com/polydawn/ustar/ustar"
)

/*
	Flags reproducing an UnpackConfig on the ustar command line.

	BufferSize isn't a flag; the child reads USTAR_BUFFER_SIZE from the
	environment it inherits.
*/
func ConfigArgs(cfg util.UnpackConfig) []string {
	args := []string{"--format=json"}

	// Only the non-default settings, to be nice to readers of 'ps'.
	if cfg.Compression != "" && cfg.Compression != util.Compression_Auto {
		args = append(args, "--compression="+string(cfg.Compression))
	}
	if cfg.Reader.EndOfArchive == ustar.EndSingleBlock {
		args = append(args, "--end-policy=single-block")
	}
	if cfg.Reader.IgnoreChecksum {
		args = append(args, "--no-verify-checksum")
	}
	if cfg.Reader.NativeSkip {
		args = append(args, "--native-skip")
	}
	if cfg.DryRun {
		args = append(args, "--dry-run")
	}
	if !cfg.PreservePerms {
		args = append(args, "--no-perms")
	}
	if !cfg.PreserveMtime {
		args = append(args, "--no-mtime")
	}
	if cfg.PreserveOwnership {
		args = append(args, "--preserve-ownership")
	}
	return args
}

func ExtractArgs(command string, archivePath, destPath string, cfg util.UnpackConfig) []string {
	return append(ConfigArgs(cfg), command, "--", archivePath, destPath)
}

func ScanArgs(archivePath string, cfg util.UnpackConfig) []string {
	return append(ConfigArgs(cfg), "list", "--", archivePath)
}

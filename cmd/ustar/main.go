package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/fs/osfs"
	tartrans "github.com/polydawn/ustar/transmat/tar"
	"github.com/polydawn/ustar/transmat/util"
	"github.com/polydawn/ustar/ustar"
)

/*
	Output serialization formats
*/
const (
	FmtJson = "json"
	FmtDumb = "dumb"
)

const (
	endTwoBlocks   = "two-blocks"
	endSingleBlock = "single-block"
)

type baseCLI struct {
	Format            string // Output api format, eg. json
	Verbose           bool   // Log debug events
	Compression       string // Compression enum, or auto
	EndPolicy         string // How many zero blocks end an archive
	NoVerifyChecksum  bool
	NativeSkip        bool
	DryRun            bool // Extract into memory
	NoPerms           bool
	NoMtime           bool
	PreserveOwnership bool
	ExtractCLI        struct {
		Archive string // Archive path
		Dest    string // Destination dir; must exist
	}
	ListCLI struct {
		Archive string
	}
	HeaderCLI struct {
		Path string // Filesystem path to describe
		Name string // Entry name to record, if not the path's base name
	}
	BatchCLI struct {
		Jobs  int      // Max concurrent extractions
		Pairs []string // "<archive>=<dest>"
	}
}

func configureExtract(cli *baseCLI, appExtract *kingpin.CmdClause) {
	appExtract.Arg("archive", "Archive path").
		Required().
		StringVar(&cli.ExtractCLI.Archive)
	appExtract.Arg("dest", "Destination dir (must exist)").
		Required().
		StringVar(&cli.ExtractCLI.Dest)
}

func configureList(cli *baseCLI, appList *kingpin.CmdClause) {
	appList.Arg("archive", "Archive path").
		Required().
		StringVar(&cli.ListCLI.Archive)
}

func configureHeader(cli *baseCLI, appHeader *kingpin.CmdClause) {
	appHeader.Arg("path", "File to describe").
		Required().
		StringVar(&cli.HeaderCLI.Path)
	appHeader.Flag("name", "Entry name to record (default: the file's base name)").
		StringVar(&cli.HeaderCLI.Name)
}

func configureBatch(cli *baseCLI, appBatch *kingpin.CmdClause) {
	appBatch.Arg("pairs", "Extractions to run, as <archive>=<dest>").
		Required().
		StringsVar(&cli.BatchCLI.Pairs)
	appBatch.Flag("jobs", "How many extractions to run at once").
		Short('j').
		Default("4").
		IntVar(&cli.BatchCLI.Jobs)
}

/*
	Blocks until a sigint is received, then calls cancel.
*/
func CancelOnInterrupt(cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan
	cancel()
	signal.Stop(signalChan)
}

func main() {
	ctx := context.Background()
	exitCode := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	os.Exit(int(exitCode))
}

func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) api.ExitCode {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go CancelOnInterrupt(cancel)

	cli := baseCLI{}

	app := kingpin.New("ustar", "USTAR archive extraction")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("format", "Output api format").
		Default(FmtDumb).
		EnumVar(&cli.Format, FmtJson, FmtDumb)
	app.Flag("verbose", "Log debug events").
		Short('v').
		BoolVar(&cli.Verbose)
	app.Flag("compression", "Decompression for tar streams [auto, none, gzip, bzip2, xz, zstd, lz4]").
		Default(string(util.Compression_Auto)).
		StringVar(&cli.Compression)
	app.Flag("end-policy", "What ends an archive [two-blocks, single-block]").
		Default(endTwoBlocks).
		EnumVar(&cli.EndPolicy, endTwoBlocks, endSingleBlock)
	app.Flag("no-verify-checksum", "Accept headers with a bad checksum").
		BoolVar(&cli.NoVerifyChecksum)
	app.Flag("native-skip", "Seek past unread content instead of reading it").
		BoolVar(&cli.NativeSkip)
	app.Flag("dry-run", "Extract into memory; the destination is only checked").
		BoolVar(&cli.DryRun)
	app.Flag("no-perms", "Ignore recorded permissions").
		BoolVar(&cli.NoPerms)
	app.Flag("no-mtime", "Ignore recorded mtimes").
		BoolVar(&cli.NoMtime)
	app.Flag("preserve-ownership", "Apply recorded uid and gid (needs CAP_CHOWN)").
		BoolVar(&cli.PreserveOwnership)

	appExtract := app.Command("extract", "extract a tar archive, optionally compressed")
	configureExtract(&cli, appExtract)

	appUnzip := app.Command("unzip", "extract a zip archive")
	configureExtract(&cli, appUnzip)

	appList := app.Command("list", "list a tar archive without extracting it")
	configureList(&cli, appList)

	appHeader := app.Command("header", "write the header block for a file to stdout")
	configureHeader(&cli, appHeader)

	appBatch := app.Command("batch", "run several extractions concurrently")
	configureBatch(&cli, appBatch)

	var termErr error
	app.Terminate(func(status int) {
		termErr = fmt.Errorf("parsing error: %d", status)
	})
	cmd, err := app.Parse(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return api.ExitUsage
	}
	if termErr != nil {
		// Help was printed.
		return api.ExitUsage
	}

	logger := newLogger(stderr, cli.Verbose)
	wire := jsonSink(stdout, cli.Verbose)
	sinkFor := func(archive string) eventSink {
		if cli.Format == FmtJson {
			return wire
		}
		return logrusSink(logger.WithField("archive", archive))
	}
	cfg, err := cli.unpackConfig()
	if err != nil {
		SerializeResult(cli.Format, nil, err, stdout, stderr)
		return api.ExitCodeFor(err)
	}

	var manifest api.Manifest
	switch cmd {
	case appExtract.FullCommand():
		manifest, err = runExtract(ctx, extractorFor("tar"), cli.ExtractCLI.Archive, cli.ExtractCLI.Dest, cfg, sinkFor)
	case appUnzip.FullCommand():
		manifest, err = runExtract(ctx, extractorFor("zip"), cli.ExtractCLI.Archive, cli.ExtractCLI.Dest, cfg, sinkFor)
	case appList.FullCommand():
		manifest, err = runList(ctx, cli.ListCLI.Archive, cfg, sinkFor)
	case appHeader.FullCommand():
		err = runHeader(cli.HeaderCLI.Path, cli.HeaderCLI.Name, stdout)
		if err == nil {
			return api.ExitSuccess
		}
	case appBatch.FullCommand():
		return runBatch(ctx, cli, cfg, sinkFor, stdout, stderr)
	}
	SerializeResult(cli.Format, manifest, err, stdout, stderr)
	return api.ExitCodeFor(err)
}

func (cli baseCLI) unpackConfig() (util.UnpackConfig, error) {
	cfg := util.DefaultUnpackConfig()
	compression, err := util.ParseCompression(cli.Compression)
	if err != nil {
		return cfg, err
	}
	cfg.Compression = compression
	if cli.EndPolicy == endSingleBlock {
		cfg.Reader.EndOfArchive = ustar.EndSingleBlock
	}
	cfg.Reader.IgnoreChecksum = cli.NoVerifyChecksum
	cfg.Reader.NativeSkip = cli.NativeSkip
	cfg.DryRun = cli.DryRun
	cfg.PreservePerms = !cli.NoPerms
	cfg.PreserveMtime = !cli.NoMtime
	cfg.PreserveOwnership = cli.PreserveOwnership
	return cfg, nil
}

func SerializeResult(format string, manifest api.Manifest, resultErr error, stdout io.Writer, stderr io.Writer) {
	result := &api.Event_Result{
		Manifest: manifest,
	}
	result.SetError(resultErr)
	ev := api.Event{Result: result}
	switch format {
	case FmtJson:
		marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stdout, api.Atlas)
		err := marshaller.Marshal(&ev)
		if err != nil {
			panic(err)
		}
		fmt.Fprintln(stdout)
	case FmtDumb:
		if resultErr != nil {
			fmt.Fprintln(stderr, resultErr)
			return
		}
		for _, entry := range manifest {
			if entry.Skipped {
				fmt.Fprintf(stdout, "%s (skipped)\n", entry.Name)
				continue
			}
			fmt.Fprintln(stdout, entry.Name)
		}
	default:
		panic(fmt.Errorf("ustar: invalid format %s", format))
	}
}

func runExtract(ctx context.Context, extract util.ExtractFunc, archive, dest string, cfg util.UnpackConfig, sinkFor func(string) eventSink) (api.Manifest, error) {
	mon, done := drainMonitor(sinkFor(archive))
	defer func() { <-done }()
	return extract(ctx, archive, dest, cfg, mon)
}

func runList(ctx context.Context, archive string, cfg util.UnpackConfig, sinkFor func(string) eventSink) (api.Manifest, error) {
	mon, done := drainMonitor(sinkFor(archive))
	defer func() { <-done }()
	return tartrans.ScanFile(ctx, archive, cfg, mon)
}

func runHeader(path, name string, stdout io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Errorf(api.ErrUsage, "invalid path %q: %s", path, err)
	}
	rel, ok := fs.ParseRelPath(filepath.Base(abs))
	if !ok || rel == (fs.RelPath{}) {
		return Errorf(api.ErrUsage, "invalid path %q: need a file, not a root", path)
	}
	afs := osfs.New(fs.MustAbsolutePath(filepath.Dir(abs)))
	_, err = tartrans.WriteHeaderBlock(afs, rel, name, stdout)
	return err
}

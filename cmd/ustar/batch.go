package main

import (
	"context"
	"io"
	"strings"

	. "github.com/warpfork/go-errcat"
	"golang.org/x/sync/errgroup"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/transmat/util"
)

type batchJob struct {
	archive, dest string
}

type batchResult struct {
	manifest api.Manifest
	err      error
}

func parseBatchJobs(pairs []string) ([]batchJob, error) {
	jobs := make([]batchJob, len(pairs))
	for i, pair := range pairs {
		ss := strings.SplitN(pair, "=", 2)
		if len(ss) != 2 || ss[0] == "" || ss[1] == "" {
			return nil, Errorf(api.ErrUsage, "batch jobs must be given as <archive>=<dest>, not %q", pair)
		}
		jobs[i] = batchJob{ss[0], ss[1]}
	}
	return jobs, nil
}

/*
	Run every job, at most cli.BatchCLI.Jobs at a time.

	A failed job doesn't stop the others.  Results are serialized in the
	order the jobs were given, and the exit code is that of the first
	failure in that order.
*/
func runBatch(ctx context.Context, cli baseCLI, cfg util.UnpackConfig, sinkFor func(string) eventSink, stdout, stderr io.Writer) api.ExitCode {
	jobs, err := parseBatchJobs(cli.BatchCLI.Pairs)
	if err == nil && cli.BatchCLI.Jobs < 1 {
		err = Errorf(api.ErrUsage, "--jobs must be at least 1")
	}
	if err != nil {
		SerializeResult(cli.Format, nil, err, stdout, stderr)
		return api.ExitCodeFor(err)
	}

	results := make([]batchResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(cli.BatchCLI.Jobs)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			manifest, err := runExtract(ctx, extractorFor(formatOf(job.archive)), job.archive, job.dest, cfg, sinkFor)
			results[i] = batchResult{manifest, err}
			return nil
		})
	}
	g.Wait()

	exitCode := api.ExitSuccess
	for _, result := range results {
		SerializeResult(cli.Format, result.manifest, result.err, stdout, stderr)
		if exitCode == api.ExitSuccess {
			exitCode = api.ExitCodeFor(result.err)
		}
	}
	return exitCode
}

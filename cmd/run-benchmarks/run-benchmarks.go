package main

import (
	"context"

	"github.com/evergreen-ci/changepoint/benchmarks"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grip.Log(level.Info, "running detector benchmarks...")
	if err := benchmarks.RunDetectorBenchmark(ctx, "build"); err != nil {
		grip.Error(err)
	}
}

package main

import (
	"fmt"
	"io"
	"time"

	"irgen/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	for _, st := range []struct {
		stage buildpipeline.Stage
		label string
	}{
		{buildpipeline.StageEmit, "emitted"},
		{buildpipeline.StageFinalize, "finalized"},
		{buildpipeline.StageWrite, "written"},
	} {
		if !timings.Has(st.stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", st.label, toMillis(timings.Duration(st.stage))); err != nil {
			panic(err)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

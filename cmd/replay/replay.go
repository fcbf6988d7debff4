package main

import (
	"fmt"
	"io"

	"KYCCapture/pkg/facezone"
)

type summary struct {
	Samples  int
	Changes  int
	Centered int
}

// replay feeds every sample through a fresh classifier and writes one line
// per sample. With onlyChanges set, samples that did not change zone are
// counted but not printed.
func replay(w io.Writer, sc *scenario, tolerance facezone.Tolerance, onlyChanges bool) (summary, error) {
	c := facezone.New(tolerance)

	var sum summary
	for i, s := range sc.Samples {
		fb, change := c.ObserveSample(s)

		sum.Samples++
		if fb.Centered {
			sum.Centered++
		}
		if change != nil {
			sum.Changes++
		}

		if onlyChanges && change == nil {
			continue
		}
		if _, err := fmt.Fprintln(w, formatLine(i, fb, change)); err != nil {
			return sum, err
		}
	}

	_, err := fmt.Fprintf(w, "samples=%d changes=%d centered=%d tolerance=%d\n",
		sum.Samples, sum.Changes, sum.Centered, tolerance)
	return sum, err
}

func formatLine(i int, fb facezone.Feedback, change *facezone.ZoneChange) string {
	line := fmt.Sprintf("#%03d pos=%+.3f zone=%s compliant=%t centered=%t %s",
		i, fb.Position, fb.Zone, fb.Compliant, fb.Centered, fb.Instruction())
	if change != nil {
		line += fmt.Sprintf(" [zone %s -> %s]", change.From, change.To)
	}
	return line
}

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const (
	cyan   = "\033[36m"
	yellow = "\033[33m"
	dim    = "\033[2m"
	reset  = "\033[0m"
)

const barWidth = 32

// Print writes the run summary to w as an ANSI table, highest ratio
// first.
func Print(w io.Writer, p Payload) {
	fmt.Fprintf(w, "%s%-16s %7s %8s %8s %6s%s\n", dim, "HANDLE", "TTR", "UNIQUE", "TOKENS", "POSTS", reset)
	for _, r := range p.Results {
		bar := strings.Repeat("█", int(r.TTR*barWidth))
		fmt.Fprintf(w, "%-16s %7.3f %8d %8d %6d  %s%s%s",
			r.Handle, r.TTR, r.UniqueTokens, r.TotalTokens, r.RecordCount, cyan, bar, reset)
		if r.UnderTarget {
			fmt.Fprintf(w, " %sunder target (%d/%d tokens)%s", yellow, r.TotalTokens, p.TargetTokens, reset)
		}
		fmt.Fprintln(w)
	}

	if len(p.Skipped) > 0 {
		handles := make([]string, 0, len(p.Skipped))
		for h := range p.Skipped {
			handles = append(handles, h)
		}
		sort.Strings(handles)
		for _, h := range handles {
			fmt.Fprintf(w, "%-16s %sskipped: %s%s\n", h, yellow, p.Skipped[h], reset)
		}
	}

	fmt.Fprintf(w, "\nmean %.3f  stddev %.3f  spread %.3f..%.3f\n",
		p.Summary.MeanTTR, p.Summary.StdDevTTR, p.Summary.MinTTR, p.Summary.MaxTTR)
	if p.Correlation != nil {
		fmt.Fprintf(w, "tokens vs ttr correlation: %+.3f\n", *p.Correlation)
	} else {
		fmt.Fprintf(w, "tokens vs ttr correlation: %s\n", p.CorrelationNote)
	}
}

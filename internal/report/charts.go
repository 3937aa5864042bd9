package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteCharts renders dir/charts.html: a ratio bar chart, a corpus
// size vs ratio scatter, and per-account vocabulary growth curves.
func WriteCharts(p Payload, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "charts.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create charts: %w", err)
	}
	defer f.Close()

	page := components.NewPage()
	page.PageTitle = "lexiscope"
	page.AddCharts(ratioBar(p), corpusScatter(p))
	if len(p.Growth) > 0 {
		page.AddCharts(growthLines(p))
	}
	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("render charts: %w", err)
	}
	return path, nil
}

func ratioBar(p Payload) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Type-token ratio by account",
			Subtitle: fmt.Sprintf("first %d tokens of each account's cleaned posts", p.TargetTokens),
		}),
	)
	handles := make([]string, 0, len(p.Results))
	values := make([]opts.BarData, 0, len(p.Results))
	for _, r := range p.Results {
		handles = append(handles, r.Handle)
		values = append(values, opts.BarData{Value: r.TTR})
	}
	bar.SetXAxis(handles).AddSeries("ttr", values)
	return bar
}

func corpusScatter(p Payload) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Corpus size vs ratio"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "total tokens"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ttr"}),
	)
	points := make([]opts.ScatterData, 0, len(p.Results))
	for _, r := range p.Results {
		points = append(points, opts.ScatterData{
			Name:       r.Handle,
			Value:      []interface{}{r.TotalTokens, r.TTR},
			SymbolSize: 12,
		})
	}
	sc.AddSeries("accounts", points)
	return sc
}

func growthLines(p Payload) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Vocabulary growth",
			Subtitle: "distinct tokens as the corpus accumulates, oldest post first",
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "cumulative tokens"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "distinct tokens"}),
	)
	handles := make([]string, 0, len(p.Growth))
	for h := range p.Growth {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	for _, h := range handles {
		curve := p.Growth[h]
		points := make([]opts.LineData, 0, len(curve))
		for _, g := range curve {
			points = append(points, opts.LineData{Value: []interface{}{g.TotalTokens, g.DistinctTokens}})
		}
		line.AddSeries(h, points)
	}
	return line
}

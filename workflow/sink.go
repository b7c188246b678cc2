package workflow

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gocarina/gocsv"

	"github.com/yyyoichi/clusterkit/evaluation"
)

// ProgressSink receives the training trace, one loss value per epoch.
type ProgressSink interface {
	WriteProgress(steps []float64) error
}

// ReportSink receives the contingency table of the test predictions.
type ReportSink interface {
	WriteReport(t evaluation.Table) error
}

type progressRow struct {
	Loss float64 `csv:"loss"`
}

// CSVProgress writes a "loss" header followed by one value per row.
type CSVProgress struct {
	W io.Writer
}

func (p CSVProgress) WriteProgress(steps []float64) error {
	rows := make([]*progressRow, len(steps))
	for i, v := range steps {
		rows[i] = &progressRow{Loss: v}
	}
	return gocsv.Marshal(rows, p.W)
}

// ChartProgress renders the training trace as an HTML line chart.
type ChartProgress struct {
	W     io.Writer
	Title string
}

func (p ChartProgress) WriteProgress(steps []float64) error {
	var (
		epochs = make([]string, len(steps))
		data   = make([]opts.LineData, len(steps))
	)
	for i, v := range steps {
		epochs[i] = strconv.Itoa(i + 1)
		data[i] = opts.LineData{Value: v}
	}

	title := p.Title
	if title == "" {
		title = "Training loss"
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: strconv.Itoa(len(steps)) + " epochs",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Epoch",
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Loss",
			Type: "value",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
	)
	line.SetXAxis(epochs)
	line.AddSeries("loss", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)
	return line.Render(p.W)
}

// JSONReport writes the contingency table as an indented JSON document keyed
// by cluster id, then label.
type JSONReport struct {
	W io.Writer
}

func (r JSONReport) WriteReport(t evaluation.Table) error {
	enc := json.NewEncoder(r.W)
	enc.SetIndent("", "    ")
	return enc.Encode(t)
}

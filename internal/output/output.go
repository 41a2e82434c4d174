package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"RateProjector/internal/api"
	"RateProjector/internal/model"
	"RateProjector/internal/recorder"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Options controls how results are rendered.
type Options struct {
	Format    string
	UseColors bool
	XSymbol   string
	YSymbol   string
}

type palette struct {
	red, green, yellow func(...any) string
}

func newPalette(useColors bool) palette {
	if !useColors {
		return palette{red: fmt.Sprint, green: fmt.Sprint, yellow: fmt.Sprint}
	}
	return palette{
		red:    color.New(color.FgRed).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
	}
}

// WriteProjection renders a projection in the requested format.
func WriteProjection(w io.Writer, p *model.Projection, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, api.NewProjectionResponse(p))
	case FormatTable, "":
		return writeProjectionTable(w, p, opts)
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}

func writeProjectionTable(w io.Writer, p *model.Projection, opts Options) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"#", "Key", "Outcome", opts.XSymbol, opts.YSymbol, "Detail"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pal := newPalette(opts.UseColors)
	var data [][]string
	for i, a := range p.Attempts {
		x, y := "-", "-"
		var outcome string
		switch a.Outcome {
		case model.OutcomeSuccess:
			outcome = pal.green("ok")
			x = strconv.FormatFloat(a.Observation.X, 'f', 6, 64)
			y = strconv.FormatFloat(a.Observation.Y, 'f', 6, 64)
		case model.OutcomeSkipped:
			outcome = pal.yellow("skip:" + string(a.Reason))
		default:
			outcome = pal.red(string(a.Outcome))
		}
		data = append(data, []string{strconv.Itoa(i + 1), a.Key, outcome, x, y, a.Detail})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	return writeSummary(w, p, opts, pal)
}

func writeSummary(w io.Writer, p *model.Projection, opts Options, pal palette) error {
	status := string(p.Status)
	if p.Status != model.FetchStatusComplete {
		status = pal.yellow(status)
	}
	if _, err := fmt.Fprintf(w, "Mode: %s, keys: %d, collected: %d, skipped: %d, status: %s\n",
		p.Mode, p.Keys, p.Collected(), p.Skipped(), status); err != nil {
		return err
	}
	if !p.OK() {
		_, err := fmt.Fprintf(w, "%s %s\n", pal.red("No projection:"), p.FitError)
		return err
	}
	if _, err := fmt.Fprintf(w, "Fit: %s = %.6f + %.6f * %s (n=%d)\n",
		opts.YSymbol, p.Model.Intercept, p.Model.Slope, opts.XSymbol, p.Model.N); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Predicted %s at %s=%.4f: %s (in %v)\n",
		opts.YSymbol, opts.XSymbol, p.QueryPoint, pal.green(fmt.Sprintf("%.6f", p.Predicted)), p.Duration.Round(time.Millisecond))
	return err
}

// WriteHistory renders recorded run summaries.
func WriteHistory(w io.Writer, runs []recorder.RunRecord, opts Options) error {
	if opts.Format == FormatJSON {
		if runs == nil {
			runs = []recorder.RunRecord{}
		}
		return writeJSON(w, runs)
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"ID", "Time", "Trigger", "Mode", "Collected", "Status", "Predicted"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pal := newPalette(opts.UseColors)
	var data [][]string
	for _, r := range runs {
		predicted := pal.green(fmt.Sprintf("%.6f", r.Predicted))
		if r.FitError != "" {
			predicted = pal.red("no fit")
		}
		data = append(data, []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Trigger,
			r.Mode,
			fmt.Sprintf("%d/%d", r.Collected, r.Keys),
			r.Status,
			predicted,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

package monitor

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// RenderOptions controls table output.
type RenderOptions struct {
	// Color highlights progress and performance tiers with ANSI colors.
	Color bool
}

var bandColors = map[Band]color.Attribute{
	BandHigh:     color.FgGreen,
	BandUpperMid: color.FgCyan,
	BandLowerMid: color.FgYellow,
	BandLow:      color.FgRed,
}

var speedColors = map[Speed]color.Attribute{
	SpeedFast:     color.FgGreen,
	SpeedGood:     color.FgCyan,
	SpeedModerate: color.FgYellow,
	SpeedSlow:     color.FgRed,
}

// Header lists the rendered columns in order.
var Header = []string{"Job ID", "Command", "Target", "Name", "Run Time", "State", "Attempted", "Progress", "Performance", "Remaining"}

// Render writes rows as a table. Values that cannot be computed are left empty.
func Render(w io.Writer, rows []Row, opts RenderOptions) {
	table := NewTable(w, Header)
	for _, r := range rows {
		table.Append(Cells(r, opts))
	}
	table.Render()
}

// NewTable returns a borderless left-aligned table in the style of Render.
func NewTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// Cells formats one row in Header order.
func Cells(r Row, opts RenderOptions) []string {
	state := string(r.State)
	if r.Status == StatusStarting || r.Status == StatusQueued {
		state = string(r.Status)
	}
	cells := []string{r.JobID, r.Command, r.Target, r.Descriptor, FormatDuration(r.Elapsed), state, "", "", "", ""}
	if r.Progress == nil {
		return cells
	}

	p := *r.Progress
	cells[6] = strconv.Itoa(p.Attempted)
	if p.Total > 0 {
		cells[6] = fmt.Sprintf("%d/%d", p.Attempted, p.Total)
	}
	fraction := p.Fraction()
	cells[7] = paint(fmt.Sprintf("%.0f%%", fraction*100), bandColors[FractionBand(fraction)], opts.Color)
	if perItem, ok := p.Throughput(); ok {
		cells[8] = paint(fmt.Sprintf("%.1fs/it", perItem.Seconds()), speedColors[ThroughputBand(perItem)], opts.Color)
	}
	if eta, ok := p.ETA(); ok {
		cells[9] = FormatDuration(eta)
	}
	return cells
}

// FormatDuration renders d as [D-]HH:MM:SS, truncated to whole seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	secs %= 86400
	s := fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	if days > 0 {
		return fmt.Sprintf("%d-%s", days, s)
	}
	return s
}

func paint(s string, attr color.Attribute, enabled bool) string {
	if !enabled {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

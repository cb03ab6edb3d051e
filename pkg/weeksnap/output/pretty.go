package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/rotator"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
)

// PrettyFormatter writes styled terminal output using lipgloss.
type PrettyFormatter struct{}

// Status writes a header box, the slot table and a footer with totals.
func (f *PrettyFormatter) Status(w *bytes.Buffer, r *StatusReport) error {
	header := fmt.Sprintf("%s %s", LabelStyle.Render("Volume:"), PathStyle.Render(r.Volume))
	w.WriteString(HeaderBox.Render(header))
	w.WriteString("\n")

	now, loc := r.now(), r.loc()
	rows := make([][]string, 0, len(r.Slots))
	for _, s := range r.Slots {
		created, age := MutedStyle.Render("-"), MutedStyle.Render("-")
		if s.Present && !s.Created.IsZero() {
			created = ValueStyle.Render(types.FormatTimestamp(s.Created, loc))
			age = MutedStyle.Render(types.FormatAge(s.Created, now))
		}

		var note string
		switch {
		case s.Error != "":
			note = ErrorStyle.Render(s.Error)
		case !s.Present:
			note = MutedStyle.Render("empty")
		case s.Mismatched(loc):
			note = WarningStyle.Render("created on " + types.SlotFor(s.Created, loc))
		default:
			note = SuccessStyle.Render("ok")
		}

		rows = append(rows, []string{SlotStyle.Render(s.Slot), created, age, note})
	}
	w.WriteString(renderTable([]string{"SLOT", "CREATED", "AGE", "STATUS"}, rows))

	footer := fmt.Sprintf("%s %s",
		LabelStyle.Render("Weekday slots filled:"),
		ValueStyle.Render(fmt.Sprintf("%d of 7", r.Filled())))
	w.WriteString(FooterBox.Render(footer))
	w.WriteString("\n")
	return nil
}

// Plan writes the dry-run steps.
func (f *PrettyFormatter) Plan(w *bytes.Buffer, p *rotator.Plan) error {
	w.WriteString(TitleStyle.Render("Dry run for " + p.Volume))
	w.WriteString("\n")
	if p.File == nil {
		w.WriteString(MutedStyle.Render("  no head snapshot to file"))
		w.WriteString("\n")
	}
	for _, step := range p.Steps() {
		style := ValueStyle
		if strings.HasSuffix(step, "would be deleted") {
			style = WarningStyle
		}
		w.WriteString("  ")
		w.WriteString(style.Render(step))
		w.WriteString("\n")
	}
	return nil
}

// History writes the entries as a table.
func (f *PrettyFormatter) History(w *bytes.Buffer, entries []manifest.Entry) error {
	if len(entries) == 0 {
		w.WriteString(MutedStyle.Render("No rotations recorded."))
		w.WriteString("\n")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		rows = append(rows, []string{
			MutedStyle.Render(e.ShortID()),
			ValueStyle.Render(types.FormatTimestamp(e.Timestamp, nil)),
			outcomeStyle(e.Outcome).Render(string(e.Outcome)),
			PathStyle.Render(e.Volume),
			ValueStyle.Render(filedSummary(e)),
		})
	}
	w.WriteString(renderTable([]string{"ID", "TIME", "OUTCOME", "VOLUME", "FILED"}, rows))
	return nil
}

// Entry writes one entry's fields with styled labels.
func (f *PrettyFormatter) Entry(w *bytes.Buffer, e *manifest.Entry) error {
	var lines []string
	for _, kv := range entryFields(e) {
		value := ValueStyle.Render(kv[1])
		switch kv[0] {
		case "Outcome":
			value = outcomeStyle(e.Outcome).Render(kv[1])
		case "Error":
			value = ErrorStyle.Render(kv[1])
		}
		lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render(kv[0]+":"), value))
	}
	w.WriteString(HeaderBox.Render(strings.Join(lines, "\n")))
	w.WriteString("\n")
	return nil
}

// renderTable pads styled cells into aligned columns. Widths are measured
// with lipgloss so ANSI sequences do not count.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := lipgloss.Width(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(TableHeaderStyle.Width(widths[i] + 2).Render(h))
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(TableRowStyle.Width(widths[i] + 2).Render(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)

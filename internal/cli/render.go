package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/types"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var (
	accent  = lipgloss.Color("#D97706")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	warning = lipgloss.Color("#F59E0B")
	danger  = lipgloss.Color("#EF4444")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)

	bandStyles = map[model.Band]lipgloss.Style{
		model.BandSuccessor:  lipgloss.NewStyle().Bold(true).Foreground(success),
		model.BandLieutenant: lipgloss.NewStyle().Foreground(success),
		model.BandCore:       lipgloss.NewStyle(),
		model.BandWatch:      lipgloss.NewStyle().Foreground(warning),
		model.BandLiability:  lipgloss.NewStyle().Bold(true).Foreground(danger),
	}
)

func checkOutput(format string) error {
	if format != outputText && format != outputJSON {
		return fmt.Errorf("%w: --output %q (want text or json)", ErrInvalidFlag, format)
	}
	return nil
}

func render(w io.Writer, format string, resp types.AssessmentResponse) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err := io.WriteString(w, renderText(resp))
	return err
}

// column widths of the member table
var widths = [...]int{4, 12, 18, 10, 7, 12}

func renderText(resp types.AssessmentResponse) string {
	run := resp.Assessment
	var b strings.Builder

	title := fmt.Sprintf("%s  run %s (%s)", run.ClanTag, run.ID, run.RunType)
	if resp.Cached {
		title += "  cached"
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("snapshot %s  period %s to %s  weights war=%.2f social=%.2f reliability=%.2f",
		run.SnapshotID,
		run.PeriodStart.Format("2006-01-02"), run.PeriodEnd.Format("2006-01-02"),
		run.Weights.War, run.Weights.Social, run.Weights.Reliability)) + "\n")

	sum := run.Summary
	fmt.Fprintf(&b, "members %d  average CLV %.1f  promotion candidates %d  demotion risks %d\n",
		sum.MemberCount, sum.AverageCLV, sum.PromotionCandidates, sum.DemotionRisks)
	bands := make([]string, 0, len(model.Bands))
	for _, band := range model.Bands {
		bands = append(bands, fmt.Sprintf("%s %d", band, sum.Bands.Get(band)))
	}
	b.WriteString(strings.Join(bands, "  ") + "\n")
	cov := run.Coverage
	b.WriteString(dimStyle.Render(fmt.Sprintf("coverage war %d  capital %d  activity %d  donations %d",
		cov.WarMetrics, cov.CapitalMetrics, cov.ActivitySignals, cov.DonationSignals)) + "\n\n")

	b.WriteString(headerStyle.Render(row("#", "TAG", "NAME", "ROLE", "CLV", "BAND")+"RECOMMENDATION") + "\n")
	for i, m := range resp.Results {
		cells := row(fmt.Sprint(i+1), m.PlayerTag, m.Name, string(m.Role), fmt.Sprintf("%.1f", m.CLVScore))
		band := bandStyles[m.Band].Render(pad(string(m.Band), widths[5]))
		b.WriteString(cells + band + m.Recommendation + "\n")
		if len(m.Flags) > 0 {
			flags := make([]string, len(m.Flags))
			for j, f := range m.Flags {
				flags[j] = string(f)
			}
			b.WriteString(dimStyle.Render(strings.Repeat(" ", widths[0])+"flags: "+strings.Join(flags, ", ")) + "\n")
		}
	}
	return b.String()
}

// row pads each cell to its column width.
func row(cells ...string) string {
	var b strings.Builder
	for i, c := range cells {
		b.WriteString(pad(c, widths[i]))
	}
	return b.String()
}

// pad truncates or right-pads s to n runes, keeping one space as separator.
func pad(s string, n int) string {
	r := []rune(s)
	if len(r) > n-1 {
		r = append(r[:n-2], '~')
	}
	return string(r) + strings.Repeat(" ", n-len(r))
}

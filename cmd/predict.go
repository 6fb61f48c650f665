package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/kartoza/rockburst/internal/grade"
	"github.com/kartoza/rockburst/internal/models"
	"github.com/kartoza/rockburst/internal/predictor"
	"github.com/kartoza/rockburst/internal/rock"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the rockburst grade of one sample",
	Long: `Score a single set of rock parameters and print the grade, the
explanation and the probability of every grade.

Values outside the documented ranges are rejected.`,
	Example: `  rockburst predict --rock granite --sigma-theta 50 --sigma-c 100 --sigma-t 10 --wet 0.5
  rockburst predict --rock 5 --sigma-theta 20 --json`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().String("rock", rock.Granite.String(), "Rock type name or code (1-5)")
	predictCmd.Flags().Float64("sigma-theta", rock.SigmaThetaRange.Default, "In-situ stress σθ in MPa")
	predictCmd.Flags().Float64("sigma-c", rock.SigmaCRange.Default, "Uniaxial compressive strength σc in MPa")
	predictCmd.Flags().Float64("sigma-t", rock.SigmaTRange.Default, "Tensile strength σt in MPa")
	predictCmd.Flags().Float64("wet", rock.WetRange.Default, "Moisture fraction (0-1)")
	predictCmd.Flags().Bool("json", false, "Print the result as JSON")
}

func runPredict(cmd *cobra.Command, args []string) error {
	rockVal, _ := cmd.Flags().GetString("rock")
	sigmaTheta, _ := cmd.Flags().GetFloat64("sigma-theta")
	sigmaC, _ := cmd.Flags().GetFloat64("sigma-c")
	sigmaT, _ := cmd.Flags().GetFloat64("sigma-t")
	wet, _ := cmd.Flags().GetFloat64("wet")
	asJSON, _ := cmd.Flags().GetBool("json")

	rt, err := rock.ParseRockType(rockVal)
	if err != nil {
		return err
	}

	v, err := rock.Collect(rock.Measurements{
		RockType:   rt,
		SigmaTheta: sigmaTheta,
		SigmaC:     sigmaC,
		SigmaT:     sigmaT,
		Wet:        wet,
	})
	if err != nil {
		return err
	}

	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := loadPredictor(store, cfg.ModelVersion)
	if err != nil {
		return err
	}

	res, err := p.Predict(v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.NewPredictResponse(v, res))
	}

	renderPrediction(out, v, res)
	return nil
}

var (
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	labelStyle = lipgloss.NewStyle().Bold(true)
)

const barWidth = 30

// renderPrediction prints the result the way the form shows it
func renderPrediction(w io.Writer, v rock.FeatureVector, res *predictor.Result) {
	heading := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(res.Grade.Color())).
		Render(fmt.Sprintf("%s (grade %d)", res.GradeLabel, int(res.Grade)))

	fmt.Fprintln(w, heading)
	fmt.Fprintln(w)
	fmt.Fprintln(w, models.Explain(res))
	fmt.Fprintln(w)

	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf(
		"rock=%s  σθ=%.1f  σc=%.1f  σt=%.1f  wet=%.2f  σθ/σc=%.3f  σc/σt=%.2f",
		v.RockType, v.SigmaTheta, v.SigmaC, v.SigmaT, v.Wet, v.SigmaThetaCRatio, v.SigmaCTRatio)))
	fmt.Fprintln(w)

	labelWidth := 0
	for _, g := range grade.All {
		if n := lipgloss.Width(g.Label()); n > labelWidth {
			labelWidth = n
		}
	}

	for _, g := range grade.All {
		prob := res.Probabilities[g]
		filled := int(prob*barWidth + 0.5)
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(g.Color())).Render(strings.Repeat("█", filled)) +
			dimStyle.Render(strings.Repeat("░", barWidth-filled))

		label := g.Label() + strings.Repeat(" ", labelWidth-lipgloss.Width(g.Label()))
		if g == res.Grade {
			label = labelStyle.Render(label)
		}
		fmt.Fprintf(w, "%s  %s %5.1f%%\n", label, bar, prob*100)
	}
}

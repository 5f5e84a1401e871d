// Package presenter renders a completed run as a human-readable table plus
// a pass/fail summary line. It never mutates the result tree (spec.md
// §4.7).
package presenter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
	evaluation "github.com/orq-ai/evaluatorq/internal/core/services/evaluation"
)

// Presenter renders a Result to a writer, colorizing pass/fail when the
// destination is a terminal (or when forced on for tests).
type Presenter struct {
	out     io.Writer
	noColor bool
}

// New builds a Presenter. Pass noColor=true to force plain text output;
// evaluatorq.Run does so when stdout is not a terminal.
func New(out io.Writer, noColor bool) *Presenter {
	return &Presenter{out: out, noColor: noColor}
}

// Print renders the table, the per-(job, evaluator) aggregate footer, and
// the summary line (spec.md §4.7's three outputs).
func (p *Presenter) Print(result *domain.Result, jobs *domain.JobRegistry, evaluators *domain.EvaluatorRegistry) {
	aggregates := evaluation.Aggregate(jobs, evaluators, result.Results)

	tw := tabwriter.NewWriter(p.out, 0, 2, 2, ' ', 0)

	p.printHeader(tw, jobs, evaluators)
	for rowIndex, dr := range result.Results {
		p.printRows(tw, rowIndex, dr, jobs, evaluators)
	}
	p.printAggregateFooter(tw, jobs, evaluators, aggregates)
	tw.Flush()

	p.printSummary(result)
}

func (p *Presenter) printHeader(tw *tabwriter.Writer, jobs *domain.JobRegistry, evaluators *domain.EvaluatorRegistry) {
	cols := []string{"ROW", "JOB"}
	for _, ev := range evaluators.All() {
		cols = append(cols, ev.Name)
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

func (p *Presenter) printRows(tw *tabwriter.Writer, rowIndex int, dr domain.DatapointResult, jobs *domain.JobRegistry, evaluators *domain.EvaluatorRegistry) {
	for ji, job := range jobs.All() {
		if ji >= len(dr.JobResults) {
			continue
		}
		jr := dr.JobResults[ji]
		cells := []string{fmt.Sprintf("%d", rowIndex), job.Name}
		for i := range evaluators.All() {
			if i >= len(jr.EvaluatorScores) {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, p.renderScoreCell(jr.EvaluatorScores[i]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
}

func (p *Presenter) renderScoreCell(es domain.EvaluatorScore) string {
	if es.Error != "" {
		return p.colorFail("ERR")
	}
	if es.Score.Pass == nil {
		return fmt.Sprintf("%v", scoreDisplayValue(es.Score.Value))
	}
	if *es.Score.Pass {
		return p.colorPass("PASS")
	}
	return p.colorFail("FAIL")
}

func scoreDisplayValue(v domain.ScoreValue) any {
	switch v.Kind {
	case domain.ScoreKindBool:
		return v.Bool
	case domain.ScoreKindNum:
		return v.Num
	case domain.ScoreKindStr:
		return v.Str
	case domain.ScoreKindCell:
		return v.Cell.Type
	default:
		return v.Raw
	}
}

func (p *Presenter) printAggregateFooter(tw *tabwriter.Writer, jobs *domain.JobRegistry, evaluators *domain.EvaluatorRegistry, aggregates []evaluation.AggregateCell) {
	byJobEvaluator := make(map[string]evaluation.AggregateCell, len(aggregates))
	for _, a := range aggregates {
		byJobEvaluator[a.JobName+"\x00"+a.EvaluatorName] = a
	}

	for _, job := range jobs.All() {
		cells := []string{"AGG", job.Name}
		for _, ev := range evaluators.All() {
			a, ok := byJobEvaluator[job.Name+"\x00"+ev.Name]
			if !ok {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, a.Display)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
}

func (p *Presenter) printSummary(result *domain.Result) {
	total := len(result.Results)
	failures := evaluation.CountFailures(result.Results)
	duration := result.EndTime.Sub(result.StartTime)

	passRate := 100.0
	if total > 0 {
		// Pass rate here is a coarse per-run signal, not the aggregator's
		// per-evaluator pass rate: the fraction of datapoints with zero
		// explicit-fail scores.
		passRate = 100.0 * float64(total-p.failingDatapoints(result)) / float64(total)
	}

	line := fmt.Sprintf("%d datapoints, %d failing scores, %.1f%% datapoints clean, %s",
		total, failures, passRate, duration.Round(time.Millisecond))
	if result.Passed() {
		fmt.Fprintln(p.out, p.colorPass(line))
	} else {
		fmt.Fprintln(p.out, p.colorFail(line))
	}
}

func (p *Presenter) failingDatapoints(result *domain.Result) int {
	count := 0
	for _, dr := range result.Results {
		if datapointFailed(dr) {
			count++
		}
	}
	return count
}

func datapointFailed(dr domain.DatapointResult) bool {
	for _, jr := range dr.JobResults {
		for _, es := range jr.EvaluatorScores {
			if es.Score.Pass != nil && !*es.Score.Pass {
				return true
			}
		}
	}
	return false
}

func (p *Presenter) colorPass(s string) string {
	if p.noColor {
		return s
	}
	return color.GreenString(s)
}

func (p *Presenter) colorFail(s string) string {
	if p.noColor {
		return s
	}
	return color.RedString(s)
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	appmatrix "github.com/turtacn/ESG-Materiality/internal/application/matrix"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/export/workbook"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// matrixFlags are shared by matrix build and matrix export-xlsx.
type matrixFlags struct {
	input          string
	selectIDs      []int64
	jitter         float64
	quadrantLabels bool
	title          string
}

func (f *matrixFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "-", "dashboard payload JSON file (- for stdin)")
	fl.Int64SliceVar(&f.selectIDs, "select", nil, "plot group ids to include (default: the global groups)")
	fl.Float64Var(&f.jitter, "jitter", materiality.DefaultJitterAmount, "radial step between overlapping points")
	fl.BoolVar(&f.quadrantLabels, "quadrant-labels", false, "label the four quadrants")
	fl.StringVar(&f.title, "title", "", "plot title")
}

// NewMatrixCmd creates the matrix command group.  Every subcommand works on
// local files and needs no running services.
func NewMatrixCmd(deps CommandDependencies) *cobra.Command {
	matrixCmd := &cobra.Command{
		Use:   "matrix",
		Short: "Aggregate responses and build materiality matrices",
	}
	matrixCmd.AddCommand(
		newAggregateCmd(),
		newBuildCmd(),
		newExportXLSXCmd(deps),
	)
	return matrixCmd
}

func newAggregateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Average duplicate answers per category and question",
		Long: "Reads a question response map, either bare or wrapped in\n" +
			"{\"question_response\": ...}, and prints one averaged answer per question.",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			resp, err := decodeQuestionResponse(raw)
			if err != nil {
				return err
			}
			return PrintResult(cmd, aggregateResult{QuestionResponse: materiality.Aggregate(resp)})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "question response JSON file (- for stdin)")
	return cmd
}

func newBuildCmd() *cobra.Command {
	f := &matrixFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the materiality matrix from a dashboard payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			payload, state, err := loadPayload(cmd, f)
			if err != nil {
				return err
			}
			m, err := payload.Build(state, plotOptions(cmd, cliCtx, f))
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("matrix built",
				logging.Int("points", m.Stats.PointCount),
				logging.Int("displaced", m.Stats.DisplacedCount))
			return PrintResult(cmd, buildResult{Matrix: m, SelectedGroups: state.SelectedGroups})
		},
	}
	f.register(cmd)
	return cmd
}

func newExportXLSXCmd(deps CommandDependencies) *cobra.Command {
	f := &matrixFlags{}
	var out string
	cmd := &cobra.Command{
		Use:   "export-xlsx",
		Short: "Write the materiality matrix of a dashboard payload to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			payload, state, err := loadPayload(cmd, f)
			if err != nil {
				return err
			}
			m, err := payload.Build(state, plotOptions(cmd, cliCtx, f))
			if err != nil {
				return err
			}
			data, err := workbook.Render(m, workbook.Meta{
				ClientID:       payload.Client.ID,
				ClientName:     payload.Client.Name,
				Year:           payload.Year,
				SelectedGroups: state.SelectedGroups,
				GeneratedAt:    deps.Now().UTC(),
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to write workbook")
			}
			PrintSuccess(cmd, fmt.Sprintf("wrote %s (%d points)", out, m.Stats.PointCount))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "workbook path to write (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// loadPayload reads and validates the payload and derives the selection:
// --select replaces the initial selection when given.
func loadPayload(cmd *cobra.Command, f *matrixFlags) (*materiality.DashboardPayload, materiality.SelectionState, error) {
	raw, err := readInput(cmd, f.input)
	if err != nil {
		return nil, materiality.SelectionState{}, err
	}
	var payload materiality.DashboardPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, materiality.SelectionState{}, errors.Wrap(err, errors.ErrCodeDashboardInvalid, "invalid dashboard payload")
	}
	if err := payload.Validate(); err != nil {
		return nil, materiality.SelectionState{}, err
	}

	state := payload.InitialSelection()
	if cmd.Flags().Changed("select") {
		for _, id := range f.selectIDs {
			if _, ok := materiality.FindGroup(payload.PlotGroups, id); !ok {
				return nil, materiality.SelectionState{}, errors.Newf(errors.ErrCodeGroupNotFound, "stakeholder group %d not found", id)
			}
		}
		state.SelectedGroups = append([]int64{}, f.selectIDs...)
	}
	return &payload, state, nil
}

// plotOptions starts from the configured defaults and applies the flags
// the user set explicitly.
func plotOptions(cmd *cobra.Command, cliCtx *CLIContext, f *matrixFlags) materiality.PlotOptions {
	base := materiality.DefaultPlotOptions()
	if cliCtx.Config != nil {
		base = appmatrix.PlotOptionsFromConfig(cliCtx.Config.Matrix)
	}
	var o appmatrix.Overrides
	if cmd.Flags().Changed("jitter") {
		o.JitterAmount = &f.jitter
	}
	if cmd.Flags().Changed("quadrant-labels") {
		o.ShowQuadrantLabels = &f.quadrantLabels
	}
	if cmd.Flags().Changed("title") {
		o.Title = &f.title
	}
	return o.Apply(base)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read input")
	}
	return raw, nil
}

// decodeQuestionResponse accepts a bare response map or one wrapped in
// {"question_response": ...}.
func decodeQuestionResponse(raw []byte) (materiality.QuestionResponse, error) {
	var wrapped struct {
		QuestionResponse json.RawMessage `json:"question_response"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(bytes.TrimSpace(wrapped.QuestionResponse)) > 0 {
		raw = wrapped.QuestionResponse
	}
	var resp materiality.QuestionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type aggregateResult struct {
	QuestionResponse materiality.QuestionResponse `json:"question_response"`
}

func (aggregateResult) TableHeaders() []string {
	return []string{"Category", "Question ID", "Index", "Priority", "Status quo"}
}

func (r aggregateResult) TableRows() [][]string {
	var rows [][]string
	for _, c := range r.QuestionResponse {
		for _, q := range c.Questions {
			rows = append(rows, []string{c.Category, string(q.QuestionID), q.IndexCode, formatOptional(q.Priority), formatOptional(q.StatusQuo)})
		}
	}
	return rows
}

type buildResult struct {
	Matrix         *materiality.Matrix `json:"matrix"`
	SelectedGroups []int64             `json:"selected_groups"`
}

func (buildResult) TableHeaders() []string {
	return []string{"Series", "Label", "Source", "Priority", "Status quo", "Plot X", "Plot Y"}
}

func (r buildResult) TableRows() [][]string {
	var rows [][]string
	for _, s := range r.Matrix.Series {
		for _, p := range s.Points {
			rows = append(rows, []string{
				s.Name, p.Label, p.SourceName,
				formatFloat(p.OriginalX), formatFloat(p.OriginalY),
				formatFloat(p.X), formatFloat(p.Y),
			})
		}
	}
	return rows
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(materiality.RoundForDisplay(v), 'f', -1, 64)
}

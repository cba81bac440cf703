// Command duelodds prints exact tie, win, loss and score probabilities for a
// two-player competition. Without a subcommand it prints the tie probability
// of a fair sixteen-event competition.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/okian/duelodds/internal/domain/model"
	"github.com/okian/duelodds/internal/domain/odds"
	"github.com/okian/duelodds/internal/domain/schedule"
)

const (
	eventsFlag    = "events"
	pointsFlag    = "points"
	probFlag      = "p"
	targetFlag    = "target"
	formatFlag    = "format"
	maxEventsFlag = "max-events"

	formatText = "text"
	formatYAML = "yaml"

	defaultEvents  = 16
	defaultWinProb = 0.5
)

var build string
var semanticVersion = "v0.1.0-dev" + build

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// scheduleFlags selects the schedule and output format.
func scheduleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    eventsFlag,
			Aliases: []string{"n"},
			Usage:   "Number of events for the default 1..N schedule",
			Value:   defaultEvents,
		},
		&cli.StringFlag{
			Name:  pointsFlag,
			Usage: "Comma separated custom point values; overrides the default schedule",
		},
		&cli.StringFlag{
			Name:  formatFlag,
			Usage: "Output format: text or yaml",
			Value: formatText,
		},
	}
}

// probFlags adds the win probability and event ceiling to scheduleFlags.
func probFlags(extra ...cli.Flag) []cli.Flag {
	flags := append(extra,
		&cli.Float64Flag{
			Name:  probFlag,
			Usage: "Per-event probability that the player of interest wins",
			Value: defaultWinProb,
		},
		&cli.IntFlag{
			Name:  maxEventsFlag,
			Usage: "Largest event count to enumerate",
			Value: odds.DefaultMaxEvents,
		},
	)
	return append(flags, scheduleFlags()...)
}

var kindUsage = map[model.Kind]string{
	model.KindTie:   "Probability that both players finish level",
	model.KindWin:   "Probability of finishing above the tie value",
	model.KindLoss:  "Probability of finishing below the tie value",
	model.KindScore: "Probability of scoring at least --target points",
}

// newApp builds the CLI writing results to out.
func newApp(out io.Writer) *cli.App {
	commands := lo.Map(model.Kinds, func(kind model.Kind, _ int) *cli.Command {
		var extra []cli.Flag
		if kind == model.KindScore {
			extra = append(extra, &cli.Float64Flag{Name: targetFlag, Usage: "Score threshold", Required: true})
		}
		return &cli.Command{
			Name:  string(kind),
			Usage: kindUsage[kind],
			Flags: probFlags(extra...),
			Action: func(cCtx *cli.Context) error {
				return runQuery(cCtx, out, kind)
			},
		}
	})

	return &cli.App{
		Name:    "duelodds",
		Usage:   "Exact outcome probabilities for a two-player competition",
		Version: semanticVersion,
		Action: func(cCtx *cli.Context) error {
			s, err := schedule.Default(defaultEvents)
			if err != nil {
				return err
			}
			tie, err := odds.New().TieProbability(cCtx.Context, s, defaultWinProb)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, formatFloat(tie))
			return err
		},
		Commands: append(commands,
			&cli.Command{
				Name:  "tie-value",
				Usage: "Half of the schedule's total points",
				Flags: scheduleFlags(),
				Action: func(cCtx *cli.Context) error {
					s, err := parseSchedule(cCtx)
					if err != nil {
						return err
					}
					return write(cCtx, out, s.TieValue(), map[string]any{
						"events":    s.Len(),
						"schedule":  s.Kind(),
						"tie_value": s.TieValue(),
					})
				},
			},
			&cli.Command{
				Name:  "report",
				Usage: "Tie value with tie, win and loss probabilities",
				Flags: probFlags(),
				Action: func(cCtx *cli.Context) error {
					s, err := parseSchedule(cCtx)
					if err != nil {
						return err
					}
					calc := odds.New(odds.WithMaxEvents(cCtx.Int(maxEventsFlag)))
					r, err := calc.Report(cCtx.Context, s, cCtx.Float64(probFlag))
					if err != nil {
						return err
					}
					switch cCtx.String(formatFlag) {
					case formatText, "":
						_, err = fmt.Fprintf(out, "events: %d (%s)\ntie value: %s\ntie: %s\nwin: %s\nloss: %s\n",
							r.Events, r.ScheduleKind, formatFloat(r.TieValue),
							formatFloat(r.Tie), formatFloat(r.Win), formatFloat(r.Loss))
						return err
					case formatYAML:
						return encodeYAML(out, r)
					default:
						return fmt.Errorf("unknown format %q", cCtx.String(formatFlag))
					}
				},
			},
		),
	}
}

// runQuery evaluates a single probability query from the command flags.
func runQuery(cCtx *cli.Context, out io.Writer, kind model.Kind) error {
	s, err := parseSchedule(cCtx)
	if err != nil {
		return err
	}
	calc := odds.New(odds.WithMaxEvents(cCtx.Int(maxEventsFlag)))
	p := cCtx.Float64(probFlag)

	var prob float64
	switch kind {
	case model.KindScore:
		prob, err = calc.ScoreProbability(cCtx.Context, s, p, cCtx.Float64(targetFlag))
	case model.KindTie:
		prob, err = calc.TieProbability(cCtx.Context, s, p)
	case model.KindWin:
		prob, err = calc.WinProbability(cCtx.Context, s, p)
	case model.KindLoss:
		prob, err = calc.LossProbability(cCtx.Context, s, p)
	}
	if err != nil {
		return err
	}

	fields := map[string]any{
		"kind":        string(kind),
		"events":      s.Len(),
		"schedule":    s.Kind(),
		"win_prob":    p,
		"probability": prob,
	}
	if kind == model.KindScore {
		fields["target"] = cCtx.Float64(targetFlag)
	}
	return write(cCtx, out, prob, fields)
}

// parseSchedule reads --points when set, --events otherwise.
func parseSchedule(cCtx *cli.Context) (schedule.Schedule, error) {
	if !cCtx.IsSet(pointsFlag) {
		return schedule.Default(cCtx.Int(eventsFlag))
	}
	points, err := parsePoints(cCtx.String(pointsFlag))
	if err != nil {
		return schedule.Schedule{}, err
	}
	if cCtx.IsSet(eventsFlag) && cCtx.Int(eventsFlag) != len(points) {
		return schedule.Schedule{}, fmt.Errorf("--events=%d disagrees with %d points", cCtx.Int(eventsFlag), len(points))
	}
	return schedule.Custom(points)
}

// parsePoints splits a comma separated list of point values.
func parsePoints(raw string) ([]float64, error) {
	fields := lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	points := make([]float64, 0, len(fields))
	for i, f := range fields {
		if f == "" {
			return nil, fmt.Errorf("empty point value at position %d", i)
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point value %q: %w", f, err)
		}
		points = append(points, v)
	}
	return points, nil
}

// write prints value in text mode, or fields as a YAML document.
func write(cCtx *cli.Context, out io.Writer, value float64, fields map[string]any) error {
	switch cCtx.String(formatFlag) {
	case formatText, "":
		_, err := fmt.Fprintln(out, formatFloat(value))
		return err
	case formatYAML:
		return encodeYAML(out, fields)
	default:
		return fmt.Errorf("unknown format %q", cCtx.String(formatFlag))
	}
}

func encodeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding to YAML failed: %w", err)
	}
	return enc.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/briangreenhill/ranplan/internal/course"
	"github.com/briangreenhill/ranplan/internal/plan"
	"github.com/briangreenhill/ranplan/internal/track"
)

const clock = "Mon 15:04"

// Plan prints the schedule for the given inputs, using the recorded history
// for completed segments.
func (c *CLI) Plan(ctx context.Context, args []string) error {
	fs := c.flagSet("plan")
	var (
		target     = fs.String("target", c.cfg.TargetFinish, "finish target, one of "+targetList())
		current    = fs.Int("current", 1, "segment the runner is on; one past the last means finished")
		start      = fs.String("start", c.cfg.RaceStart, "race start time (RFC3339)")
		transition = fs.Float64("transition", c.cfg.TransitionMinutes, "minutes spent at each aid station")
		asJSON     = fs.Bool("json", false, "print the plan as JSON")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	raceStart, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid race start %q: %w", *start, err)
	}

	recorded, err := c.history.List(ctx)
	if err != nil {
		return err
	}

	out, err := c.calculator.Compute(plan.Inputs{
		RaceStart:         raceStart,
		Target:            course.Target(*target),
		TransitionMinutes: *transition,
		CurrentSegmentID:  *current,
		History:           recorded,
	})
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(c.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(c.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSegment\tStatus\tHours\tStart\tEnd\tCutoff margin\tCarbs\tPacer")
	for _, s := range out.Segments {
		hours := "-"
		switch {
		case s.ActualTotalTimeHours != nil:
			hours = fmt.Sprintf("%.2f", *s.ActualTotalTimeHours)
			if s.Estimated {
				hours += "*"
			}
		case s.PlannedTotalTimeHours != nil:
			hours = fmt.Sprintf("%.2f", *s.PlannedTotalTimeHours)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%+.2fh\t%s g\t%s\n",
			s.ID, s.Name, s.Category, hours,
			s.StartTime.Format(clock), s.EndTime.Format(clock),
			s.CutoffMarginHours, whole(s.Nutrition.Carbs), s.Pacer)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.writer, "\nProjected finish: %s (%.2f h)\n",
		out.ProjectedFinish.Format(time.RFC1123), out.ProjectedTotalTimeHours)
	fmt.Fprintf(c.writer, "Runner nutrition: %s g carbs, %s kcal, %.1f L\n",
		whole(out.TotalNutrition.Carbs), whole(out.TotalNutrition.Calories), out.TotalNutrition.Liters)

	pacers := make([]string, 0, len(out.Pacers))
	for name := range out.Pacers {
		pacers = append(pacers, name)
	}
	sort.Strings(pacers)
	for _, name := range pacers {
		p := out.Pacers[name]
		fmt.Fprintf(c.writer, "Pacer %s: %.2f h over %.1f km, %s g carbs, %.1f L\n",
			name, p.TotalHours, p.TotalKm, whole(p.Nutrition.Carbs), p.Nutrition.Liters)
	}

	return nil
}

// Track summarizes a GPX file and its elevation along each segment.
func (c *CLI) Track(args []string) error {
	fs := c.flagSet("track")
	var gpxFile, unitName string
	fs.StringVar(&gpxFile, "gpx", c.cfg.GPXPath, "path to gpx file")
	fs.StringVar(&unitName, "unit", c.cfg.GPXElevationUnit, "elevation unit in the file (ft or m)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if gpxFile == "" {
		fs.Usage()
		return fmt.Errorf("a gpx file is required")
	}

	c.logger.Info("Reading gpx file", slog.String("gpx_file", gpxFile))

	unit, err := track.ParseElevationUnit(unitName)
	if err != nil {
		return err
	}
	t, err := track.ReadGPXFile(gpxFile, unit)
	if err != nil {
		return err
	}

	route := track.NewRoute(t, c.calculator.Catalog(), c.cfg.ProfilePointsPerKm)

	fmt.Fprintf(c.writer, "%s: %s points, %.1f km, +%s m / -%s m (%s to %s m)\n",
		t.Name, humanize.Comma(int64(len(t.Points))), t.Stats.TotalDistanceKm,
		whole(t.Stats.ElevationGainM), whole(t.Stats.ElevationLossM),
		whole(t.Stats.MinElevationM), whole(t.Stats.MaxElevationM))

	tw := tabwriter.NewWriter(c.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKm\tStart m\tEnd m\tGain m\tLoss m")
	for _, s := range route.Segments {
		fmt.Fprintf(tw, "%d\t%.1f\t%.0f\t%.0f\t%.0f\t%.0f\n",
			s.SegmentID, s.DistanceKm, s.StartElevationM, s.EndElevationM, s.ElevationGainM, s.ElevationLossM)
	}
	return tw.Flush()
}

// History manages recorded segment results.
func (c *CLI) History(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.Usage()
		return nil
	}

	switch args[0] {
	case "add":
		return c.addHistory(ctx, args[1:])
	case "list":
		return c.listHistory(ctx)
	case "import":
		return c.importHistory(ctx, args[1:])
	default:
		c.Usage()
	}
	return nil
}

func (c *CLI) addHistory(ctx context.Context, args []string) error {
	fs := c.flagSet("history add")
	var (
		segment = fs.Int("segment", 0, "segment id")
		hours   = fs.Float64("hours", -1, "actual total time in hours, including aid station and sleep")
		rank    = fs.Int("rank", 0, "overall rank at the end of the segment (optional)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, ok := c.calculator.Catalog().Get(*segment); !ok {
		return fmt.Errorf("unknown segment %d", *segment)
	}
	if *hours < 0 {
		fs.Usage()
		return fmt.Errorf("--hours is required")
	}

	result := plan.HistoricalResult{SegmentID: *segment, ActualTotalTimeHours: *hours}
	if *rank > 0 {
		result.Rank = rank
	}

	if err := c.history.Add(ctx, result); err != nil {
		return err
	}

	fmt.Fprintln(c.writer, "Segment result recorded successfully")
	return nil
}

func (c *CLI) listHistory(ctx context.Context) error {
	results, err := c.history.List(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.writer, "No segment results recorded")
		return nil
	}

	catalog := c.calculator.Catalog()
	tw := tabwriter.NewWriter(c.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSegment\tHours\tRank")
	for _, r := range results {
		name := "?"
		if s, ok := catalog.Get(r.SegmentID); ok {
			name = s.Name
		}
		rank := "-"
		if r.Rank != nil {
			rank = humanize.Ordinal(*r.Rank)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", r.SegmentID, name, r.ActualTotalTimeHours, rank)
	}
	return tw.Flush()
}

func (c *CLI) importHistory(ctx context.Context, args []string) error {
	fs := c.flagSet("history import")
	var csvFile string
	fs.StringVar(&csvFile, "csv", "", "path to a segment_id,hours[,rank] csv file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if csvFile == "" {
		fs.Usage()
		return fmt.Errorf("a csv file is required")
	}

	f, err := os.Open(csvFile)
	if err != nil {
		return fmt.Errorf("error reading csv file: %w", err)
	}
	defer f.Close()

	n, err := c.history.Import(ctx, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.writer, "Imported %s segment %s\n", humanize.Comma(int64(n)), plural(n, "result", "results"))
	return nil
}

func whole(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func targetList() string {
	names := make([]string, len(course.Targets))
	for i, t := range course.Targets {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

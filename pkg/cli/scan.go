package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	urfave "github.com/urfave/cli/v2"

	"github.com/fairlens/fairscan/pkg/data"
	"github.com/fairlens/fairscan/pkg/dataset"
	"github.com/fairlens/fairscan/pkg/mdss"
	"github.com/fairlens/fairscan/pkg/net"
)

var (
	fileFlag = &urfave.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path or URL of the scored dataset (CSV with header)",
		Required: true,
	}

	outcomeColFlag = &urfave.StringFlag{
		Name:  "outcome",
		Usage: "Name of the observed outcome column (0/1)",
	}

	probabilityColFlag = &urfave.StringFlag{
		Name:  "probability",
		Usage: "Name of the predicted probability column",
	}

	featureColFlag = &urfave.StringSliceFlag{
		Name:  "feature",
		Usage: "Feature column to scan over (can be specified multiple times, default: all other columns)",
	}

	directionFlag = &urfave.StringFlag{
		Name:  "direction",
		Usage: "Bias direction to test [under, over]",
	}

	penaltyFlag = &urfave.Float64Flag{
		Name:  "penalty",
		Usage: "Complexity penalty per feature-value constraint",
	}

	restartsFlag = &urfave.IntFlag{
		Name:  "restarts",
		Usage: "Number of independent random restarts",
	}

	passesFlag = &urfave.IntFlag{
		Name:  "passes",
		Usage: "Max coordinate-ascent passes per restart",
	}

	seedFlag = &urfave.Int64Flag{
		Name:  "seed",
		Usage: "Random seed (scans are deterministic for a fixed seed)",
	}

	noSaveFlag = &urfave.BoolFlag{
		Name:  "no-save",
		Usage: "Do not record the result in the local database",
	}

	scanCmd = &urfave.Command{
		Name:    "scan",
		Aliases: []string{"s"},
		Usage:   "Scan a scored dataset for the most anomalous subgroup",
		UsageText: `fairscan scan -f scores.csv                           # scan with config defaults
   fairscan scan -f scores.csv --direction over          # look for over-predicted groups
   fairscan scan -f https://host/scores.csv --no-save    # scan a remote dataset, print only`,
		Action: cmdScan,
		Flags: []urfave.Flag{
			fileFlag,
			outcomeColFlag,
			probabilityColFlag,
			featureColFlag,
			directionFlag,
			penaltyFlag,
			restartsFlag,
			passesFlag,
			seedFlag,
			noSaveFlag,
			debugFlag,
		},
	}
)

func cmdScan(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	src := c.String(fileFlag.Name)

	path := src
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		tmp, err := os.CreateTemp("", "fairscan-*.csv")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		slog.Debug("downloading dataset", "url", src)
		if err := net.Download(c.Context, src, tmp.Name()); err != nil {
			return fmt.Errorf("downloading dataset: %w", err)
		}
		path = tmp.Name()
	}

	loadOpts := dataset.LoadOptions{
		OutcomeColumn:     cfg.Conf.Dataset.Outcome,
		ProbabilityColumn: cfg.Conf.Dataset.Probability,
		FeatureColumns:    cfg.Conf.Dataset.Features,
	}
	if v := c.String(outcomeColFlag.Name); v != "" {
		loadOpts.OutcomeColumn = v
	}
	if v := c.String(probabilityColFlag.Name); v != "" {
		loadOpts.ProbabilityColumn = v
	}
	if v := c.StringSlice(featureColFlag.Name); len(v) > 0 {
		loadOpts.FeatureColumns = v
	}

	ds, err := dataset.LoadCSV(path, loadOpts)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	opts, dirVal := scanOptions(c, cfg)
	dir, err := mdss.ParseDirection(dirVal)
	if err != nil {
		return err
	}

	scanner, err := mdss.NewScanner(opts)
	if err != nil {
		return err
	}

	slog.Debug("scanning",
		"dataset", src,
		"rows", ds.Len(),
		"features", len(ds.Features()),
		"direction", dir,
		"penalty", opts.Penalty,
		"restarts", opts.Restarts,
	)

	sub, score, err := scanner.Scan(c.Context, ds, dir)
	if err != nil {
		return fmt.Errorf("scanning dataset: %w", err)
	}

	res := buildResult(ds, src, dir, opts, sub, score)

	if !c.Bool(noSaveFlag.Name) {
		id, err := data.SaveResult(cfg.DB, res)
		if err != nil {
			return fmt.Errorf("saving result: %w", err)
		}
		res.ID = id
	}

	return encode(res)
}

// scanOptions resolves the scan knobs: config file values first, CLI
// flags on top.
func scanOptions(c *urfave.Context, cfg *appConfig) (mdss.Options, string) {
	opts := mdss.DefaultOptions()
	dir := mdss.UnderPrediction.String()

	sc := cfg.Conf.Scan
	if sc.Penalty > 0 {
		opts.Penalty = sc.Penalty
	}
	if sc.Restarts > 0 {
		opts.Restarts = sc.Restarts
	}
	if sc.MaxPasses > 0 {
		opts.MaxPasses = sc.MaxPasses
	}
	if sc.Seed != 0 {
		opts.Seed = sc.Seed
	}
	if sc.Direction != "" {
		dir = sc.Direction
	}

	if c.IsSet(penaltyFlag.Name) {
		opts.Penalty = c.Float64(penaltyFlag.Name)
	}
	if c.IsSet(restartsFlag.Name) {
		opts.Restarts = c.Int(restartsFlag.Name)
	}
	if c.IsSet(passesFlag.Name) {
		opts.MaxPasses = c.Int(passesFlag.Name)
	}
	if c.IsSet(seedFlag.Name) {
		opts.Seed = c.Int64(seedFlag.Name)
	}
	if c.IsSet(directionFlag.Name) {
		dir = c.String(directionFlag.Name)
	}
	return opts, dir
}

func buildResult(ds *dataset.Dataset, src string, dir mdss.Direction, opts mdss.Options, sub mdss.Subgroup, score float64) *data.Result {
	matched := ds.MatchIndices(sub)
	inGroup := make(map[int]bool, len(matched))
	for _, r := range matched {
		inGroup[r] = true
	}
	var rest []int
	for i := 0; i < ds.Len(); i++ {
		if !inGroup[i] {
			rest = append(rest, i)
		}
	}

	groupStats := ds.RowStats(matched)
	restStats := ds.RowStats(rest)

	return &data.Result{
		Dataset:              src,
		Direction:            dir.String(),
		Penalty:              opts.Penalty,
		Restarts:             opts.Restarts,
		MaxPasses:            opts.MaxPasses,
		Seed:                 opts.Seed,
		Score:                score,
		Subgroup:             sub,
		MatchedRows:          groupStats.Rows,
		GroupPositiveRate:    groupStats.PositiveRate,
		GroupMeanProbability: groupStats.MeanProbability,
		RestPositiveRate:     restStats.PositiveRate,
	}
}

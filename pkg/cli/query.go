package cli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"

	"github.com/fairlens/fairscan/pkg/data"
)

const queryResultLimitDefault = 50

var (
	queryLimitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: queryResultLimitDefault,
	}

	resultIDFlag = &urfave.Int64Flag{
		Name:     "id",
		Usage:    "Scan result ID",
		Required: true,
	}

	queryCmd = &urfave.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Query previously recorded scan results",
		Subcommands: []*urfave.Command{
			{
				Name:    "list",
				Usage:   "List recorded scan results, newest first",
				Aliases: []string{"l"},
				Action:  cmdQueryResults,
				Flags: []urfave.Flag{
					queryLimitFlag,
				},
			},
			{
				Name:    "get",
				Usage:   "Get a single scan result",
				Aliases: []string{"g"},
				Action:  cmdQueryResult,
				Flags: []urfave.Flag{
					resultIDFlag,
				},
			},
		},
	}
)

func cmdQueryResults(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	limit := c.Int(queryLimitFlag.Name)
	if limit < 1 || limit > queryResultLimitDefault {
		limit = queryResultLimitDefault
	}

	list, err := data.ListResults(cfg.DB, limit)
	if err != nil {
		return fmt.Errorf("failed to query results: %w", err)
	}
	return encode(list)
}

func cmdQueryResult(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	res, err := data.GetResult(cfg.DB, c.Int64(resultIDFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to query result: %w", err)
	}
	if res == nil {
		return fmt.Errorf("result %d not found", c.Int64(resultIDFlag.Name))
	}
	return encode(res)
}

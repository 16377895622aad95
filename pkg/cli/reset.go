package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	urfave "github.com/urfave/cli/v2"
)

var (
	forceFlag = &urfave.BoolFlag{
		Name:  "force",
		Usage: "Skip the confirmation prompt",
	}

	resetCmd = &urfave.Command{
		Name:            "reset",
		Usage:           "Delete all recorded scan results and start fresh",
		HideHelpCommand: true,
		Flags:           []urfave.Flag{forceFlag, debugFlag},
		Action:          cmdReset,
	}
)

func cmdReset(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	if !c.Bool(forceFlag.Name) {
		fmt.Printf("This will permanently delete all data in %s\n", cfg.DBPath)
		fmt.Print("Are you sure? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// close the DB before deleting the file
	if cfg.DB != nil {
		cfg.DB.Close()
		cfg.DB = nil
	}
	if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting database: %w", err)
	}

	fmt.Println("Done.")
	return nil
}

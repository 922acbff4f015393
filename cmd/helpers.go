package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/abeval-cli/internal/config"
	"github.com/KaramelBytes/abeval-cli/internal/dataset"
	"github.com/KaramelBytes/abeval-cli/internal/logging"
	"github.com/KaramelBytes/abeval-cli/internal/ux"
)

// Input flags shared by every command that reads the processed table.
var (
	inPath      string
	inDelimiter string
	inDecimal   string
	inThousands string
)

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVarP(&inPath, "input", "i", "", "processed table (CSV/TSV); defaults to data_path from config")
	c.Flags().StringVar(&inDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (by extension if omitted)")
	c.Flags().StringVar(&inDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	c.Flags().StringVar(&inThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
}

// inputOptions merges the column layout from config with the input flags.
func inputOptions(c *cfgpkg.Global) (string, dataset.Options, error) {
	opt := c.DatasetOptions()
	path := c.DataPath
	if inPath != "" {
		path = inPath
	}
	switch inDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return "", opt, fmt.Errorf("unsupported --delimiter: %s", inDelimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(inDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return "", opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", inDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(inThousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return "", opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", inThousands)
	}
	return path, opt, nil
}

// loadInput resolves the config and reads the processed table, reporting
// loader warnings on the command's error stream.
func loadInput(cmd *cobra.Command) (*cfgpkg.Global, *dataset.Dataset, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	path, opt, err := inputOptions(c)
	if err != nil {
		return nil, nil, err
	}
	ds, err := dataset.Load(path, opt)
	if err != nil {
		return nil, nil, err
	}
	logging.GetLogger(cmd.Context()).Debug("loaded table",
		zap.String("path", path),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("observations", len(ds.Observations)),
		zap.Int("skipped", ds.Skipped))
	for _, w := range ds.Warnings {
		ux.Warnf(cmd.ErrOrStderr(), "%s", w)
	}
	return c, ds, nil
}

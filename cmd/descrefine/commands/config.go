package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/descrefine/internal/docio"
	"github.com/jmylchreest/descrefine/internal/output"
	"github.com/jmylchreest/descrefine/pkg/refiner"
)

// Settings is the effective configuration: refiner rules plus I/O options.
type Settings struct {
	refiner.Config `mapstructure:",squash" yaml:",inline"`

	Backup   bool   `mapstructure:"backup" json:"backup" yaml:"backup"`
	MaxSize  string `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	Encoding string `mapstructure:"encoding" json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// loadSettings reads config file, environment and bound flags, merging the
// refiner part onto the defaults.
func loadSettings(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg := refiner.DefaultConfig().Merge(&s.Config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s.Config = *cfg
	return &s, nil
}

// readOptions converts settings into document read options.
func (s *Settings) readOptions() (docio.Options, error) {
	size, err := docio.ParseSize(s.MaxSize)
	if err != nil {
		return docio.Options{}, err
	}
	if size == 0 && strings.TrimSpace(s.MaxSize) != "" {
		// An explicit zero disables the limit.
		size = -1
	}
	return docio.Options{MaxSize: size, Encoding: s.Encoding}, nil
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration descrefine would use after merging the defaults,
the config file and DESCREFINE_* environment variables.

The output is a valid .descrefine.yaml and can be used as a starting point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			w := output.NewYAMLWriter(cmd.OutOrStdout(), true)
			if err := w.Write(s); err != nil {
				return err
			}
			return w.Close()
		},
	}
	return cmd
}

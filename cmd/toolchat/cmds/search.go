package cmds

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a query through the configured search backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			searcher, err := newSearcher(viper.GetViper())
			if err != nil {
				return err
			}
			results, err := searcher.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			format, _ := cmd.Flags().GetString("output")
			switch format {
			case "text":
				_, err = fmt.Fprintln(out, results.String())
				return err
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(results); err != nil {
					return err
				}
				return enc.Close()
			}
			return errors.Errorf("unknown output format %q", format)
		},
	}
	cmd.Flags().String("output", "text", "Output format (text, yaml)")
	return cmd
}

package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := newRegistry(viper.GetViper())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range reg.Descriptions() {
				if _, err := fmt.Fprintf(out, "%s: %s\n", d.Name, d.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

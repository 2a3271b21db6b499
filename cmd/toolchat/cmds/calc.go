package cmds

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/toolchat/pkg/toolbox/calculator"
	"github.com/spf13/cobra"
)

func NewCalcCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calc <expression>",
		Short: "Evaluate an expression with the Calculator tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := calculator.Run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res)
			return err
		},
	}
}

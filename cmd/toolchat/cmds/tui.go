package cmds

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/toolchat/pkg/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Chat in a full-screen terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), viper.GetViper())
		},
	}
}

func runTUI(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !ui.IsTerminal(os.Stdout) {
		return errors.New("tui needs a terminal, use the chat command instead")
	}
	sess, err := newSession(v)
	if err != nil {
		return err
	}

	// console logs would draw over the screen
	if v.GetString("log-file") == "" {
		log.Logger = log.Output(io.Discard)
	}

	styles := ui.NewStyles(os.Stdout, true)
	p := tea.NewProgram(
		ui.NewModel(sess, &styles),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/toolchat/pkg/inference/session"
	"github.com/go-go-golems/toolchat/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func NewChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with a model that can search the web and use a calculator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), viper.GetViper())
		},
	}
}

func newSession(v *viper.Viper) (*session.Session, error) {
	eng, name, err := newEngine(v)
	if err != nil {
		return nil, err
	}
	reg, err := newRegistry(v)
	if err != nil {
		return nil, err
	}
	cfg, err := loopConfig(v)
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		Engine:     eng,
		EngineName: name,
		Registry:   reg,
		LoopConfig: cfg,
	})
}

func runChat(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sess, err := newSession(v)
	if err != nil {
		return err
	}
	log.Debug().Str("session_id", sess.SessionID).Strs("tools", sess.Registry.Names()).Msg("chat session started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	interrupts := make(chan struct{}, 1)
	color := ui.IsTerminal(os.Stdout)
	opts := []ui.Option{
		ui.WithInput(os.Stdin),
		ui.WithOutput(os.Stdout),
		ui.WithStyles(ui.NewStyles(os.Stdout, color)),
		ui.WithInterrupts(interrupts),
	}
	if v.IsSet(keyShowTools) {
		opts = append(opts, ui.WithToolTrace(v.GetBool(keyShowTools)))
	}
	if v.GetBool(keyMarkdown) {
		opts = append(opts, ui.WithMarkdown(100, color))
	}
	repl := ui.New(sess, opts...)

	eg := errgroup.Group{}
	eg.Go(func() error {
		defer cancel()
		return repl.Run(ctx)
	})
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig := <-sigCh:
				if sig == syscall.SIGTERM {
					cancel()
					return nil
				}
				select {
				case interrupts <- struct{}{}:
				default:
				}
			}
		}
	})

	return eg.Wait()
}

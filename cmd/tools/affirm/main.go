// Command affirm 在终端中生成一条 affirmation，便于调试提示词和提供方配置。
//
//	affirm --topic career --mood confident
//	affirm --topic career --mood confident --dry-run
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-affirm/backend/internal/config"
	model "github.com/zhouzirui/z-affirm/backend/internal/model/affirmation"
	"github.com/zhouzirui/z-affirm/backend/internal/provider/stub"
	"github.com/zhouzirui/z-affirm/backend/internal/service/affirmation"
)

// modelFactory 根据配置创建模型，返回模型和默认超时。
type modelFactory func(ctx context.Context, provider string) (einomodel.BaseChatModel, time.Duration, error)

type options struct {
	topic    string
	mood     string
	provider string
	dryRun   bool
	timeout  time.Duration
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(modelFromConfig).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(newModel modelFactory) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "affirm",
		Short:         "Generate a personalized affirmation",
		Long:          `Generates one affirmation for the given topic and mood using the configured text generation provider.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd, opts, newModel)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", describe(err))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.topic, "topic", "", "Topic of the affirmation, e.g. career")
	cmd.Flags().StringVar(&opts.mood, "mood", "", "Mood of the affirmation, e.g. confident")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Override AI_PROVIDER (ark|openai|gemini|stub)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the rendered prompt without calling the provider")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Provider call timeout (default AI_TIMEOUT)")

	return cmd
}

func run(cmd *cobra.Command, opts *options, newModel modelFactory) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	req := model.Request{Topic: opts.topic, Mood: opts.mood}

	if opts.dryRun {
		// 只渲染提示词，不需要任何凭证
		svc, err := affirmation.NewService(ctx, stub.New(""))
		if err != nil {
			return err
		}
		msgs, err := svc.RenderPrompt(ctx, req)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n%s\n\n", msg.Role, msg.Content)
		}
		return nil
	}

	chatModel, timeout, err := newModel(ctx, opts.provider)
	if err != nil {
		return err
	}
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	svc, err := affirmation.NewService(ctx, chatModel, affirmation.WithTimeout(timeout))
	if err != nil {
		return err
	}

	resp, err := svc.Generate(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Affirmation)
	return nil
}

// describe 对输入错误给出具体原因，其余错误附带底层信息便于排查。
func describe(err error) string {
	var e *model.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Kind == model.KindInvalidInput {
		return e.UserMessage()
	}
	return e.Error()
}

func modelFromConfig(ctx context.Context, provider string) (einomodel.BaseChatModel, time.Duration, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load configuration: %w", err)
	}
	if provider != "" {
		if cfg.AI, err = cfg.AI.WithProvider(provider); err != nil {
			return nil, 0, err
		}
	}
	if !cfg.AI.Enabled() {
		return nil, 0, fmt.Errorf("provider %q is not configured, check the AI_* environment variables", cfg.AI.Provider)
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, 0, err
	}
	return chatModel, cfg.AI.Timeout, nil
}

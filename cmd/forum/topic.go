package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/forum/internal/forum/app"
	"github.com/aussiebroadwan/forum/internal/forum/service"
)

// NewTopicCmd creates the topic command group.
func NewTopicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage the topic catalogue",
	}
	cmd.AddCommand(newTopicCreateCmd())
	return cmd
}

func newTopicCreateCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a topic users can subscribe to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
			}

			db, err := app.OpenStore(cmd.Context(), cfg, app.NewLogger(cfg))
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").With("operation", "open store").Wrap(err)
			}
			defer func() { _ = db.Close() }()

			topics := &service.TopicService{Store: db}
			t, err := topics.CreateTopic(cmd.Context(), title, content)
			if err != nil {
				return err
			}

			cmd.Printf("created topic %s %q\n", t.ID, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "topic title (unique)")
	cmd.Flags().StringVar(&content, "content", "", "topic body")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

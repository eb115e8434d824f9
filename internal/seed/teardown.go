package seed

import (
	"context"
	"strconv"

	"github.com/petrijr/benchseed/internal/site"
	"github.com/petrijr/benchseed/pkg/api"
)

// Option values restored by teardown.
const (
	DefaultPermalinks      = "/%postname%/"
	DefaultBlogName        = "WordPress"
	DefaultBlogDescription = "Just another WordPress blog"
)

// ResetOptions restores the permalink structure and the site identity.
func (s *Seeder) ResetOptions() api.HandlerFunc {
	return s.Settings(map[string]string{
		site.OptionPermalinks:      DefaultPermalinks,
		site.OptionBlogName:        DefaultBlogName,
		site.OptionBlogDescription: DefaultBlogDescription,
	})
}

// ResetTheme switches back to the core default theme.
func (s *Seeder) ResetTheme() api.HandlerFunc {
	return s.Theme(site.DefaultTheme)
}

// DeactivatePlugins deactivates the commerce and courseware plugins.
func (s *Seeder) DeactivatePlugins() api.HandlerFunc {
	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		return nil, s.site.DeactivatePlugins(ctx, site.PluginCommerce, site.PluginCourseware)
	}
}

// DeleteData removes generated content. Attachments are deleted DataChunk
// at a time; while any remain the step re-names itself with the running
// count of deleted attachments as checkpoint. The last call truncates the
// content tables and removes generated accounts.
func (s *Seeder) DeleteData() api.HandlerFunc {
	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		if cfg.OpArgs.IsDone() {
			return nil, nil
		}

		deleted := cfg.OpArgs.Offset()
		if deleted > 0 {
			// Offsets are 1-based: the checkpoint stores deleted+1.
			deleted--
		}

		n, err := s.site.DeletePosts(ctx, site.TypeAttachment, DataChunk)
		if err != nil {
			return nil, err
		}
		s.site.Reclaim(ctx)
		deleted += n

		remaining, err := s.site.CountPosts(ctx, site.TypeAttachment)
		if err != nil {
			return nil, err
		}
		if remaining > 0 {
			return &api.Continuation{
				NextOp: api.OpData,
				OpArgs: api.At(deleted + 1),
			}, nil
		}

		if err := s.site.TruncateContent(ctx); err != nil {
			return nil, err
		}
		users, err := s.site.DeleteUsersByEmailSuffix(ctx, "@"+EmailDomain)
		if err != nil {
			return nil, err
		}

		return &api.Continuation{
			OpData: []string{
				"attachments=" + strconv.Itoa(deleted),
				"users=" + strconv.FormatInt(users, 10),
			},
		}, nil
	}
}

// Package seed holds the operation handlers that populate and clean a site,
// and the catalogue of scenarios built from them.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/internal/site"
	"github.com/petrijr/benchseed/pkg/api"
)

// Items per call for each chunked operation.
const (
	UsersChunk    = 100
	PostsChunk    = 100
	PagesChunk    = 100
	MediaChunk    = 20
	ProductsChunk = 50
	OrdersChunk   = 25
	CoursesChunk  = 10

	// DataChunk is the number of attachments teardown deletes per call.
	DataChunk = 100
)

// Defaults applied when a request leaves the account attributes empty.
const (
	DefaultPassword = "bench2"
	DefaultRole     = "subscriber"
)

// Handler error reasons reported by the seeding operations.
const (
	ReasonThemeNotFound   = "theme-not-found"
	ReasonPluginNotFound  = "plugin-not-found"
	ReasonProductNotFound = "product-not-found"
	ReasonNoProducts      = "no-products"
)

// PermanentReasons lists the reasons that persist until an operator
// installs the missing theme or plugin.
var PermanentReasons = []string{ReasonThemeNotFound, ReasonPluginNotFound}

// Seeder builds operation handlers bound to one site.
type Seeder struct {
	site *site.Site

	// ReclaimEvery overrides the chunk reclaim interval when > 0.
	ReclaimEvery int
}

func New(s *site.Site) *Seeder {
	return &Seeder{site: s}
}

// Site returns the site the handlers write to.
func (s *Seeder) Site() *site.Site {
	return s.site
}

func (s *Seeder) chunk(op api.OpName, kind api.Kind, size int, item func(ctx context.Context, cfg api.Config, i int) (string, error)) api.HandlerFunc {
	return engine.ChunkHandler(func(cfg api.Config) engine.ChunkSpec {
		return engine.ChunkSpec{
			Op:    op,
			Total: cfg.Quantity(kind),
			Size:  size,
			Item: func(ctx context.Context, i int) (string, error) {
				return item(ctx, cfg, i)
			},
			Reclaim:      s.site.Reclaim,
			ReclaimEvery: s.ReclaimEvery,
		}
	})
}

// Theme switches to the named theme. A missing theme is a handler error
// with reason "theme-not-found".
func (s *Seeder) Theme(name string) api.HandlerFunc {
	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		if err := s.site.SwitchTheme(ctx, name); err != nil {
			if errors.Is(err, site.ErrThemeNotFound) {
				return nil, api.HandlerError(ReasonThemeNotFound, err)
			}
			return nil, err
		}
		return nil, nil
	}
}

// Plugins activates the named plugins. A plugin that is not installed is a
// handler error with reason "plugin-not-found".
func (s *Seeder) Plugins(names ...string) api.HandlerFunc {
	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		for _, name := range names {
			if err := s.site.ActivatePlugin(ctx, name); err != nil {
				if errors.Is(err, site.ErrPluginNotFound) {
					return nil, api.HandlerError(ReasonPluginNotFound, err)
				}
				return nil, err
			}
		}
		return nil, nil
	}
}

// Settings writes a fixed set of options.
func (s *Seeder) Settings(values map[string]string) api.HandlerFunc {
	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		for name, value := range values {
			if err := s.site.SetOption(ctx, name, value); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}

func (s *Seeder) Users() api.HandlerFunc {
	return s.chunk(api.OpUsers, api.KindUsers, UsersChunk, func(ctx context.Context, cfg api.Config, i int) (string, error) {
		password := cfg.Password
		if password == "" {
			password = DefaultPassword
		}
		role := cfg.Role
		if role == "" {
			role = DefaultRole
		}

		login := Login(i)
		_, err := s.site.UpsertUser(ctx, site.User{
			Login:       login,
			Email:       Email(i),
			Password:    password,
			FirstName:   "Benchino",
			LastName:    "Refresher",
			DisplayName: "Benchino Refresher",
			Role:        role,
		})
		if err != nil {
			return "", err
		}
		return login, nil
	})
}

func (s *Seeder) Posts() api.HandlerFunc {
	return s.chunk(api.OpPosts, api.KindPosts, PostsChunk, func(ctx context.Context, cfg api.Config, i int) (string, error) {
		return s.content(ctx, site.TypePost, PostTitle(i), i)
	})
}

func (s *Seeder) Pages() api.HandlerFunc {
	return s.chunk(api.OpPages, api.KindPages, PagesChunk, func(ctx context.Context, cfg api.Config, i int) (string, error) {
		return s.content(ctx, site.TypePage, PageTitle(i), i)
	})
}

func (s *Seeder) content(ctx context.Context, postType, title string, i int) (string, error) {
	slug := Slug(postType, i)
	_, err := s.site.UpsertPost(ctx, site.Post{
		Type:    postType,
		Slug:    slug,
		Title:   title,
		Content: Lorem(i),
	})
	if err != nil {
		return "", err
	}
	return slug, nil
}

func (s *Seeder) Media() api.HandlerFunc {
	return s.chunk(api.OpMedia, api.KindMedia, MediaChunk, func(ctx context.Context, cfg api.Config, i int) (string, error) {
		name := MediaName(i)
		_, err := s.site.UpsertPost(ctx, site.Post{
			Type:   site.TypeAttachment,
			Slug:   Slug(site.TypeAttachment, i),
			Title:  name,
			Status: "inherit",
			Meta: map[string]string{
				"_wp_attached_file": name,
				"_source_asset":     MediaAsset(i),
				"_mime_type":        "image/jpeg",
			},
		})
		if err != nil {
			return "", err
		}
		return name, nil
	})
}

func (s *Seeder) Products() api.HandlerFunc {
	return s.chunk(api.OpProducts, api.KindProducts, ProductsChunk, func(ctx context.Context, cfg api.Config, i int) (string, error) {
		slug := Slug(site.TypeProduct, i)
		price := ProductPrice(i)
		_, err := s.site.UpsertPost(ctx, site.Post{
			Type:    site.TypeProduct,
			Slug:    slug,
			Title:   Prefix(i) + ": A Bench2 Test Product",
			Content: Lorem(i),
			Meta: map[string]string{
				"_sku":   Prefix(i),
				"_price": formatCents(price),
			},
		})
		if err != nil {
			return "", err
		}
		return slug, nil
	})
}

// Orders creates orders referencing earlier products and, when users were
// requested, customers. Without products the step soft-stops with reason
// "no-products".
func (s *Seeder) Orders() api.HandlerFunc {
	items := s.chunk(api.OpOrders, api.KindOrders, OrdersChunk, func(ctx context.Context, cfg api.Config, i int) (string, error) {
		productSlug := Slug(site.TypeProduct, wrap(i, cfg.Products))
		productID, err := s.site.PostID(ctx, site.TypeProduct, productSlug)
		if err != nil {
			if errors.Is(err, site.ErrPostNotFound) {
				return "", api.HandlerError(ReasonProductNotFound, err)
			}
			return "", err
		}

		var customer int64
		if cfg.Users > 0 {
			customer, err = s.site.UserID(ctx, Login(wrap(i, cfg.Users)))
			if err != nil && !errors.Is(err, site.ErrUserNotFound) {
				return "", err
			}
		}

		slug := Slug(site.TypeOrder, i)
		_, err = s.site.UpsertPost(ctx, site.Post{
			Type:   site.TypeOrder,
			Slug:   slug,
			Title:  "Order " + Prefix(i),
			Status: "wc-completed",
			Author: customer,
			Meta: map[string]string{
				"_product_id":    strconv.FormatInt(productID, 10),
				"_customer_user": strconv.FormatInt(customer, 10),
				"_order_total":   formatCents(ProductPrice(wrap(i, cfg.Products))),
			},
		})
		if err != nil {
			return "", err
		}
		return slug, nil
	})

	return func(ctx context.Context, cfg api.Config) (*api.Continuation, error) {
		if cfg.Products <= 0 {
			return nil, api.SoftStop(ReasonNoProducts)
		}
		return items(ctx, cfg)
	}
}

// Courses creates courses, each with LessonsPerCourse lessons and
// QuizzesPerCourse quizzes.
func (s *Seeder) Courses() api.HandlerFunc {
	return s.chunk(api.OpCourses, api.KindCourses, CoursesChunk, func(ctx context.Context, cfg api.Config, i int) (string, error) {
		slug := Slug("course", i)
		courseID, err := s.site.UpsertPost(ctx, site.Post{
			Type:    site.TypeCourse,
			Slug:    slug,
			Title:   Prefix(i) + ": A Bench2 Test Course",
			Content: Lorem(i),
		})
		if err != nil {
			return "", err
		}

		for j := 1; j <= cfg.LessonsPerCourse; j++ {
			_, err := s.site.UpsertPost(ctx, site.Post{
				Type:    site.TypeLesson,
				Slug:    fmt.Sprintf("%s-lesson-%d", slug, j),
				Title:   fmt.Sprintf("%s: Lesson %d", Prefix(i), j),
				Content: Lorem(i + j),
				Parent:  courseID,
			})
			if err != nil {
				return "", err
			}
		}

		for j := 1; j <= cfg.QuizzesPerCourse; j++ {
			_, err := s.site.UpsertPost(ctx, site.Post{
				Type:   site.TypeQuiz,
				Slug:   fmt.Sprintf("%s-quiz-%d", slug, j),
				Title:  fmt.Sprintf("%s: Quiz %d", Prefix(i), j),
				Parent: courseID,
			})
			if err != nil {
				return "", err
			}
		}
		return slug, nil
	})
}

func formatCents(c int) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

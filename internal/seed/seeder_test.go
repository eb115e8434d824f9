package seed

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/internal/site"
	"github.com/petrijr/benchseed/pkg/api"
)

type fixture struct {
	site       *site.Site
	store      *persistence.InMemoryStore
	dispatcher api.Dispatcher
}

// newFixture opens an in-memory site with the themes and plugins the
// catalogue needs and registers every scenario.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s, err := site.Open(db)
	if err != nil {
		t.Fatalf("site.Open failed: %v", err)
	}
	for _, theme := range []string{site.DefaultTheme, site.StorefrontTheme} {
		if err := s.InstallTheme(ctx, theme); err != nil {
			t.Fatalf("InstallTheme failed: %v", err)
		}
	}
	for _, plugin := range []string{site.PluginCommerce, site.PluginCourseware} {
		if err := s.InstallPlugin(ctx, plugin); err != nil {
			t.Fatalf("InstallPlugin failed: %v", err)
		}
	}

	store := persistence.NewInMemoryStore()
	d := engine.NewDispatcher(engine.Config{Status: store})
	if err := Register(d, New(s)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return &fixture{site: s, store: store, dispatcher: d}
}

// walk drives scenario from hello to completion and returns the number of
// handler calls and all collected op_data.
func (f *fixture) walk(t *testing.T, scenario string, cfg api.Config) (int, []string) {
	t.Helper()
	ctx := context.Background()

	cont, err := f.dispatcher.Dispatch(ctx, scenario, cfg)
	if err != nil {
		t.Fatalf("%s hello failed: %v", scenario, err)
	}

	calls := 0
	var data []string
	for !cont.Complete() {
		if calls > 1000 {
			t.Fatalf("%s did not complete", scenario)
		}
		cfg = cfg.Next(cont)
		cont, err = f.dispatcher.Dispatch(ctx, scenario, cfg)
		if err != nil {
			t.Fatalf("%s %s(%s) failed: %v", scenario, cfg.Op, cfg.OpArgs, err)
		}
		calls++
		data = append(data, cont.OpData...)
	}
	return calls, data
}

func (f *fixture) count(t *testing.T, postType string) int {
	t.Helper()
	n, err := f.site.CountPosts(context.Background(), postType)
	if err != nil {
		t.Fatalf("CountPosts failed: %v", err)
	}
	return n
}

func TestCatalogue_Names(t *testing.T) {
	f := newFixture(t)
	want := []string{ScenarioWordPress, ScenarioMisc, ScenarioWooCommerce, ScenarioLearnDash, ScenarioFinalize, ScenarioClean}
	got := f.dispatcher.Scenarios()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestProvisioningRequiresClean(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatcher.Dispatch(context.Background(), ScenarioWordPress, api.Config{Users: 1})
	if !errors.Is(err, api.ErrWrongStatus) {
		t.Fatalf("expected wrong-status on a fresh site, got %v", err)
	}
}

func TestLifecycle_CleanSeedFinalize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// clean: options, themes, plugins, data, finalize.
	calls, _ := f.walk(t, ScenarioClean, api.Config{})
	if calls != 5 {
		t.Fatalf("expected 5 clean calls, got %d", calls)
	}
	if st, _ := f.store.GetStatus(ctx); st != api.EnvClean {
		t.Fatalf("expected clean status, got %q", st)
	}
	if name, _, _ := f.site.Option(ctx, site.OptionBlogName); name != DefaultBlogName {
		t.Fatalf("expected blogname reset, got %q", name)
	}

	// theme 1 + users 3 + posts 1 + pages 1 + media 2
	cfg := api.Config{Users: 250, Posts: 30, Pages: 5, Media: 25, Password: "secret"}
	calls, data := f.walk(t, ScenarioWordPress, cfg)
	if calls != 8 {
		t.Fatalf("expected 8 wordpress calls, got %d", calls)
	}
	if len(data) != 250+30+5+25 {
		t.Fatalf("expected %d op_data entries, got %d", 310, len(data))
	}
	if data[0] != Login(1) || data[249] != Login(250) {
		t.Fatalf("unexpected user logins %q..%q", data[0], data[249])
	}

	if n, _ := f.site.CountUsers(ctx, "@"+EmailDomain); n != 250 {
		t.Fatalf("expected 250 users, got %d", n)
	}
	ok, err := f.site.CheckPassword(ctx, Login(17), "secret")
	if err != nil || !ok {
		t.Fatalf("expected configured password, got %v, %v", ok, err)
	}
	if f.count(t, site.TypePost) != 30 || f.count(t, site.TypePage) != 5 || f.count(t, site.TypeAttachment) != 25 {
		t.Fatalf("unexpected content counts")
	}
	if theme, _ := f.site.ActiveTheme(ctx); theme != site.DefaultTheme {
		t.Fatalf("expected default theme, got %q", theme)
	}

	id, err := f.site.PostID(ctx, site.TypePost, Slug(site.TypePost, 3))
	if err != nil {
		t.Fatalf("PostID failed: %v", err)
	}
	post, err := f.site.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if post.Title != PostTitle(3) || post.Content != Lorem(3) {
		t.Fatalf("unexpected post 3: %q", post.Title)
	}

	// Replaying a finished range leaves the same rows.
	replay := cfg
	replay.Op = api.OpPosts
	replay.OpArgs = api.At(11)
	if _, err := f.dispatcher.Dispatch(ctx, ScenarioWordPress, replay); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if f.count(t, site.TypePost) != 30 {
		t.Fatalf("replay duplicated posts")
	}

	f.walk(t, ScenarioFinalize, api.Config{})
	if st, _ := f.store.GetStatus(ctx); st != api.EnvReady {
		t.Fatalf("expected ready status, got %q", st)
	}
	if f.site.Stats().Persistent != 0 {
		t.Fatalf("finalize must flush the long-lived cache")
	}

	_, err = f.dispatcher.Dispatch(ctx, ScenarioWordPress, api.Config{Users: 1})
	if !errors.Is(err, api.ErrWrongStatus) {
		t.Fatalf("expected wrong-status once ready, got %v", err)
	}
}

func TestTeardown_DeletesAttachmentsInChunks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.walk(t, ScenarioClean, api.Config{})
	f.walk(t, ScenarioWordPress, api.Config{Users: 3, Posts: 2, Media: 130})

	if err := f.store.SetStatus(ctx, api.EnvReady); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	cfg := api.Config{Op: api.OpData}
	cont, err := f.dispatcher.Dispatch(ctx, ScenarioClean, cfg)
	if err != nil {
		t.Fatalf("first data call failed: %v", err)
	}
	if cont.NextOp != api.OpData || cont.OpArgs.Offset() != 101 {
		t.Fatalf("expected {data, 101}, got next=%q args=%s", cont.NextOp, cont.OpArgs)
	}
	if f.count(t, site.TypeAttachment) != 30 {
		t.Fatalf("expected 30 attachments left")
	}

	cont, err = f.dispatcher.Dispatch(ctx, ScenarioClean, cfg.Next(cont))
	if err != nil {
		t.Fatalf("second data call failed: %v", err)
	}
	if cont.NextOp != api.OpFinalize || !cont.OpArgs.IsZero() {
		t.Fatalf("expected finalize next, got next=%q args=%s", cont.NextOp, cont.OpArgs)
	}
	if len(cont.OpData) != 2 || cont.OpData[0] != "attachments=130" || cont.OpData[1] != "users=3" {
		t.Fatalf("unexpected op_data %v", cont.OpData)
	}
	if f.count(t, "") != 0 {
		t.Fatalf("content must be truncated")
	}
	if n, _ := f.site.CountUsers(ctx, "@"+EmailDomain); n != 0 {
		t.Fatalf("generated users must be deleted, %d left", n)
	}
}

func TestWooCommerce_ProductsAndOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.walk(t, ScenarioClean, api.Config{})

	// plugins, settings, theme, users 1, products 2, orders 3
	calls, _ := f.walk(t, ScenarioWooCommerce, api.Config{Users: 4, Products: 60, Orders: 55})
	if calls != 9 {
		t.Fatalf("expected 9 calls, got %d", calls)
	}
	if theme, _ := f.site.ActiveTheme(ctx); theme != site.StorefrontTheme {
		t.Fatalf("expected storefront, got %q", theme)
	}
	if plugins, _ := f.site.ActivePlugins(ctx); len(plugins) != 1 || plugins[0] != site.PluginCommerce {
		t.Fatalf("expected commerce plugin active, got %v", plugins)
	}
	if f.count(t, site.TypeProduct) != 60 || f.count(t, site.TypeOrder) != 55 {
		t.Fatalf("unexpected commerce counts")
	}

	// Order 5 maps to product 5 and customer 1.
	orderID, err := f.site.PostID(ctx, site.TypeOrder, Slug(site.TypeOrder, 5))
	if err != nil {
		t.Fatalf("PostID(order 5) failed: %v", err)
	}
	order, err := f.site.GetPost(ctx, orderID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	productID, _ := f.site.PostID(ctx, site.TypeProduct, Slug(site.TypeProduct, 5))
	customerID, _ := f.site.UserID(ctx, Login(1))
	if order.Meta["_product_id"] != itoa(productID) || order.Meta["_customer_user"] != itoa(customerID) {
		t.Fatalf("unexpected order references: %v", order.Meta)
	}
	if order.Meta["_order_total"] != formatCents(ProductPrice(5)) {
		t.Fatalf("unexpected order total %q", order.Meta["_order_total"])
	}
}

func TestUsers_CustomRoleIsStored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.walk(t, ScenarioClean, api.Config{})

	cfg := api.Config{Users: 2, Role: "shop_manager", Op: api.OpUsers}
	if _, err := f.dispatcher.Dispatch(ctx, ScenarioWooCommerce, cfg); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	id, err := f.site.UserID(ctx, Login(2))
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if role, _ := f.site.UserMeta(ctx, id, "role"); role != "shop_manager" {
		t.Fatalf("expected role shop_manager, got %q", role)
	}
}

func TestWooCommerce_OrdersWithoutProductsSoftStop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.walk(t, ScenarioClean, api.Config{})

	cfg := api.Config{Orders: 5, Op: api.OpOrders}
	_, err := f.dispatcher.Dispatch(ctx, ScenarioWooCommerce, cfg)
	if !api.IsSoftStop(err) {
		t.Fatalf("expected soft stop, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Reason != "no-products" {
		t.Fatalf("expected no-products reason, got %v", err)
	}
	if f.count(t, site.TypeOrder) != 0 {
		t.Fatalf("soft stop must not create orders")
	}
}

func TestLearnDash_CoursesWithLessonsAndQuizzes(t *testing.T) {
	f := newFixture(t)
	f.walk(t, ScenarioClean, api.Config{})

	cfg := api.Config{Courses: 12, LessonsPerCourse: 3, QuizzesPerCourse: 1}
	calls, data := f.walk(t, ScenarioLearnDash, cfg)
	// plugins, settings, theme, courses x2
	if calls != 5 {
		t.Fatalf("expected 5 calls, got %d", calls)
	}
	if len(data) != 12 {
		t.Fatalf("expected 12 course slugs, got %d", len(data))
	}
	if f.count(t, site.TypeCourse) != 12 || f.count(t, site.TypeLesson) != 36 || f.count(t, site.TypeQuiz) != 12 {
		t.Fatalf("unexpected courseware counts")
	}
}

func TestTheme_MissingIsHandlerError(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s, err := site.Open(db)
	if err != nil {
		t.Fatalf("site.Open failed: %v", err)
	}

	store := persistence.NewInMemoryStore()
	_ = store.SetStatus(ctx, api.EnvClean)
	d := engine.NewDispatcher(engine.Config{Status: store})
	if err := Register(d, New(s)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// The core default theme is always present.
	if _, err := d.Dispatch(ctx, ScenarioWordPress, api.Config{Op: api.OpTheme}); err != nil {
		t.Fatalf("default theme switch failed: %v", err)
	}

	_, err = d.Dispatch(ctx, ScenarioWooCommerce, api.Config{Op: api.OpTheme})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Code != api.CodeHandler || apiErr.Reason != "theme-not-found" {
		t.Fatalf("expected theme-not-found handler error, got %v", err)
	}

	_, err = d.Dispatch(ctx, ScenarioWooCommerce, api.Config{Op: api.OpPlugins})
	if !errors.As(err, &apiErr) || apiErr.Reason != "plugin-not-found" {
		t.Fatalf("expected plugin-not-found handler error, got %v", err)
	}
}

func TestReclaimBoundsTransientState(t *testing.T) {
	f := newFixture(t)
	f.walk(t, ScenarioClean, api.Config{})

	cont, err := f.dispatcher.Dispatch(context.Background(), ScenarioWordPress, api.Config{Posts: 100, Op: api.OpPosts})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !cont.OpArgs.IsZero() {
		t.Fatalf("expected the 100-post chunk to finish")
	}
	// Item 100 is a reclaim boundary so nothing is left behind.
	if st := f.site.Stats(); st.Queries != 0 || st.Objects != 0 {
		t.Fatalf("expected reclaimed state after item 100, got %+v", st)
	}
}

func TestRegister_RequiresSite(t *testing.T) {
	if err := Register(engine.NewInMemoryDispatcher(), &Seeder{}); err == nil {
		t.Fatalf("expected error for a seeder without a site")
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

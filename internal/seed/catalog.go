package seed

import (
	"errors"

	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/internal/site"
	"github.com/petrijr/benchseed/pkg/api"
)

// Scenario names.
const (
	ScenarioWordPress   = "wordpress"
	ScenarioMisc        = "misc"
	ScenarioWooCommerce = "woocommerce"
	ScenarioLearnDash   = "learndash"
	ScenarioFinalize    = "finalize"
	ScenarioClean       = "clean"
)

var commerceSettings = map[string]string{
	"woocommerce_currency":              "USD",
	"woocommerce_default_country":       "US:CA",
	"woocommerce_calc_taxes":            "no",
	"woocommerce_enable_guest_checkout": "yes",
}

var coursewareSettings = map[string]string{
	"learndash_settings_courses_management_display": "yes",
	"learndash_settings_quizzes_management_display": "yes",
}

// Scenarios returns the full catalogue bound to s, in registration order.
func Scenarios(s *Seeder) []api.ScenarioDefinition {
	content := func(name string) api.ScenarioDefinition {
		return api.ScenarioDefinition{
			Name: name,
			Type: api.Provisioning,
			Steps: []api.StepDefinition{
				{Name: api.OpTheme, Fn: s.Theme(site.DefaultTheme)},
				{Name: api.OpUsers, Fn: s.Users(), Quantity: api.KindUsers},
				{Name: api.OpPosts, Fn: s.Posts(), Quantity: api.KindPosts},
				{Name: api.OpPages, Fn: s.Pages(), Quantity: api.KindPages},
				{Name: api.OpMedia, Fn: s.Media(), Quantity: api.KindMedia},
			},
		}
	}

	return []api.ScenarioDefinition{
		content(ScenarioWordPress),
		content(ScenarioMisc),
		{
			Name: ScenarioWooCommerce,
			Type: api.Provisioning,
			Steps: []api.StepDefinition{
				{Name: api.OpPlugins, Fn: s.Plugins(site.PluginCommerce)},
				{Name: api.OpSettings, Fn: s.Settings(commerceSettings)},
				{Name: api.OpTheme, Fn: s.Theme(site.StorefrontTheme)},
				{Name: api.OpUsers, Fn: s.Users(), Quantity: api.KindUsers},
				{Name: api.OpPosts, Fn: s.Posts(), Quantity: api.KindPosts},
				{Name: api.OpPages, Fn: s.Pages(), Quantity: api.KindPages},
				{Name: api.OpMedia, Fn: s.Media(), Quantity: api.KindMedia},
				{Name: api.OpProducts, Fn: s.Products(), Quantity: api.KindProducts},
				{Name: api.OpOrders, Fn: s.Orders(), Quantity: api.KindOrders},
			},
		},
		{
			Name: ScenarioLearnDash,
			Type: api.Provisioning,
			Steps: []api.StepDefinition{
				{Name: api.OpPlugins, Fn: s.Plugins(site.PluginCourseware)},
				{Name: api.OpSettings, Fn: s.Settings(coursewareSettings)},
				{Name: api.OpTheme, Fn: s.Theme(site.DefaultTheme)},
				{Name: api.OpUsers, Fn: s.Users(), Quantity: api.KindUsers},
				{Name: api.OpCourses, Fn: s.Courses(), Quantity: api.KindCourses},
			},
		},
		{
			Name: ScenarioFinalize,
			Type: api.Provisioning,
			Steps: []api.StepDefinition{
				{Name: api.OpFinalize, Fn: engine.StatusHandler(api.EnvReady, s.site.FlushCache)},
			},
		},
		{
			Name: ScenarioClean,
			Type: api.Teardown,
			Steps: []api.StepDefinition{
				{Name: api.OpOptions, Fn: s.ResetOptions()},
				{Name: api.OpThemes, Fn: s.ResetTheme()},
				{Name: api.OpPlugins, Fn: s.DeactivatePlugins()},
				{Name: api.OpData, Fn: s.DeleteData()},
				{Name: api.OpFinalize, Fn: engine.StatusHandler(api.EnvClean, s.site.FlushCache)},
			},
		},
	}
}

// Register adds every scenario of the catalogue to d.
func Register(d api.Dispatcher, s *Seeder) error {
	if s == nil || s.site == nil {
		return errors.New("seed: seeder has no site")
	}
	for _, def := range Scenarios(s) {
		if err := d.RegisterScenario(def); err != nil {
			return err
		}
	}
	return nil
}

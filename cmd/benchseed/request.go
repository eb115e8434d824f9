package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/petrijr/benchseed/pkg/api"
)

// requestFlags are the request parameters accepted on the command line.
// Flags that were set explicitly override values from --request.
type requestFlags struct {
	file string
	cfg  api.Config
	op   string
	args string
}

func (f *requestFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "request", "f", "", "YAML request file")
	fs.IntVar(&f.cfg.Users, "users", 0, "number of users")
	fs.IntVar(&f.cfg.Posts, "posts", 0, "number of posts")
	fs.IntVar(&f.cfg.Pages, "pages", 0, "number of pages")
	fs.IntVar(&f.cfg.Media, "media", 0, "number of media attachments")
	fs.IntVar(&f.cfg.Products, "products", 0, "number of products")
	fs.IntVar(&f.cfg.Orders, "orders", 0, "number of orders")
	fs.IntVar(&f.cfg.Courses, "courses", 0, "number of courses")
	fs.IntVar(&f.cfg.LessonsPerCourse, "lessons", 0, "lessons per course")
	fs.IntVar(&f.cfg.QuizzesPerCourse, "quizzes", 0, "quizzes per course")
	fs.StringVar(&f.cfg.Password, "password", "", "password of generated accounts")
	fs.StringVar(&f.cfg.Role, "role", "", "role of generated accounts")
}

// registerStep adds the op and op_args flags used by single-call commands.
func (f *requestFlags) registerStep(fs *pflag.FlagSet) {
	fs.StringVar(&f.op, "op", "", "operation to run (default hello)")
	fs.StringVar(&f.args, "op-args", "", "checkpoint to resume from")
}

// build merges the request file with the flags that were set.
func (f *requestFlags) build(fs *pflag.FlagSet) (api.Config, error) {
	var cfg api.Config
	if f.file != "" {
		var err error
		if cfg, err = loadRequest(f.file); err != nil {
			return cfg, err
		}
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("users", func() { cfg.Users = f.cfg.Users })
	set("posts", func() { cfg.Posts = f.cfg.Posts })
	set("pages", func() { cfg.Pages = f.cfg.Pages })
	set("media", func() { cfg.Media = f.cfg.Media })
	set("products", func() { cfg.Products = f.cfg.Products })
	set("orders", func() { cfg.Orders = f.cfg.Orders })
	set("courses", func() { cfg.Courses = f.cfg.Courses })
	set("lessons", func() { cfg.LessonsPerCourse = f.cfg.LessonsPerCourse })
	set("quizzes", func() { cfg.QuizzesPerCourse = f.cfg.QuizzesPerCourse })
	set("password", func() { cfg.Password = f.cfg.Password })
	set("role", func() { cfg.Role = f.cfg.Role })
	set("op", func() { cfg.Op = api.OpName(f.op) })

	if fs.Changed("op-args") {
		cp, err := api.ParseCheckpoint(f.args)
		if err != nil {
			return cfg, err
		}
		cfg.OpArgs = cp
	}
	return cfg, nil
}

// loadRequest reads an api.Config from a YAML file.
func loadRequest(path string) (api.Config, error) {
	var cfg api.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read request: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse request %s: %w", path, err)
	}
	return cfg, nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"nle/internal/config"
	"nle/internal/logging"
	"nle/internal/project"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// projectPath accepts a bare project name, resolved inside the configured
// project directory, or a path to a project file.
func (c *commandContext) projectPath(arg string) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	arg = strings.TrimSpace(arg)
	if strings.ContainsRune(arg, os.PathSeparator) || strings.HasSuffix(arg, ".nle") {
		return config.ExpandPath(arg)
	}
	return cfg.ProjectPath(arg), nil
}

// withProject opens the project named by arg for the duration of fn.
func (c *commandContext) withProject(cmd *cobra.Command, arg string, fn func(context.Context, *project.Project) error) error {
	path, err := c.projectPath(arg)
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	p, err := project.Open(ctx, path, project.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(logging.WithProject(ctx, p.Name()), p)
}

// projectName derives a display name from a project argument.
func projectName(arg string) string {
	base := filepath.Base(strings.TrimSpace(arg))
	return strings.TrimSuffix(base, ".nle")
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

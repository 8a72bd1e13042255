package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sitter "github.com/jubnzv-go/godd"
	"github.com/jubnzv-go/godd/config"
	"github.com/jubnzv-go/godd/driver"
	_ "github.com/jubnzv-go/godd/lua"
	"github.com/jubnzv-go/godd/passes"
)

func toSource(b []byte) sitter.Source { return sitter.Source(b) }

var reduceFlags = struct {
	passes      string
	output      string
	timeoutSecs uint32
	force       bool
	recursive   bool
	verbosity   int
}{}

func runReduce(cmd *cobra.Command, args []string) error {
	switch reduceFlags.verbosity {
	case 0:
		log.SetLevel(logrus.WarnLevel)
	case 1:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.New(config.Options{
		Script:    args[0],
		File:      args[1],
		OutputDir: reduceFlags.output,
		Timeout:   time.Duration(reduceFlags.timeoutSecs) * time.Second,
		Force:     reduceFlags.force,
		Recursive: reduceFlags.recursive,
		PassesArg: reduceFlags.passes,
	})
	if err != nil {
		return err
	}

	source, err := os.ReadFile(cfg.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.File, err)
	}

	passCfg := passes.Config{
		Script:    cfg.Script,
		OutputDir: cfg.OutputDir,
		Timeout:   cfg.Timeout,
		Counter:   &passes.Counter{},
		Logger:    log,
	}

	d, err := driver.New(cfg.Passes, passCfg)
	if err != nil {
		return err
	}
	if err := driver.PrepareOutputDirs(cfg.OutputDir, cfg.Force, d.Passes); err != nil {
		return err
	}

	reduced, err := d.Run(cmd.Context(), toSource(source))
	if errors.Is(err, driver.ErrNoChange) {
		fmt.Println("Cannot reproduce the failure")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Print(string(reduced))
	return nil
}

package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// envFlags maps environment variables to the flags they default.
var envFlags = map[string]string{
	"GRAPHT_DB":     "db",
	"GRAPHT_FORMAT": "format",
	"GRAPHT_ADDR":   "addr",
}

// loadDotEnv reads .env files into the process environment. Variables
// already set win. Missing files are not an error.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// applyEnv loads .env and copies GRAPHT_* variables into any flag of cmd
// that was not set on the command line.
func applyEnv(cmd *cobra.Command) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	for env, name := range envFlags {
		val, ok := os.LookupEnv(env)
		if !ok || val == "" {
			continue
		}
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := cmd.Flags().Set(name, val); err != nil {
			return err
		}
	}
	return nil
}

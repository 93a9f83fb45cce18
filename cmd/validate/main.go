package main

import (
	"flag"
	"os"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	log := logger.New().WithField("module", "validate")
	failed := false

	log.WithField("file", *configPath).Info("validating config")
	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.WithField("file", *configPath).WithField("error", err.Error()).Error("config validation failed")
		failed = true
		// Rule files can still be checked at their default location.
		cfg = config.Default()
	} else {
		log.WithField("file", *configPath).Info("validation successful")
	}

	phrases, pii, categories := cfg.Rules.Paths()
	files := []struct {
		name string
		path string
		out  any
	}{
		{"phrases", phrases, &config.Phrases{}},
		{"pii_profanity", pii, &config.PIIProfanity{}},
		{"call_category", categories, &config.CallCategories{}},
	}
	for _, f := range files {
		entry := log.WithField("file", f.path).WithField("rules", f.name)
		entry.Info("validating rules")
		if err := config.LoadYAMLFile(f.path, f.out); err != nil {
			entry.WithField("error", err.Error()).Error("rules validation failed")
			failed = true
			continue
		}
		entry.Info("validation successful")
	}

	if failed {
		os.Exit(1)
	}
	log.Info("all configuration files are valid")
}

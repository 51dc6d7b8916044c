package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cellratios/pkg/aggregation"
	"cellratios/pkg/config"
	"cellratios/pkg/report"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "experiment.yaml", "Experiment configuration file (YAML)")
	inputDir := flag.String("input", "", "Directory containing one QuPath count file per slice (overrides config)")
	outputDir := flag.String("output", "", "Directory receiving the result files (overrides config)")
	experiment := flag.String("experiment", "", "Experiment name used in output names (overrides config)")
	regionName := flag.String("region-name", "", "Brain area label used in output names (overrides config)")
	tracer := flag.String("tracer", "", "Tracer to report ratios for: BLA or NRe (overrides config)")
	sqlitePath := flag.String("sqlite", "", "Also store the results in this SQLite database (overrides config)")
	writeConfig := flag.String("write-config", "", "Write a default configuration to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line values take precedence over the file
	if *inputDir != "" {
		cfg.Input = *inputDir
	}
	if *outputDir != "" {
		cfg.Output = *outputDir
	}
	if *experiment != "" {
		cfg.Experiment = *experiment
	}
	if *regionName != "" {
		cfg.RegionName = *regionName
	}
	if *tracer != "" {
		cfg.Tracer = *tracer
	}
	if *sqlitePath != "" {
		cfg.SQLite = *sqlitePath
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if info, err := os.Stat(cfg.Input); err != nil || !info.IsDir() {
		log.Fatalf("Input directory %q does not exist", cfg.Input)
	}

	fmt.Println("================================")
	fmt.Println("CELL COUNT RATIOS FROM QUPATH SLICE EXPORTS")
	fmt.Printf("%s\n", cfg.Experiment)
	fmt.Println("================================")

	params, err := aggregation.ParamsFromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	aggregator := aggregation.NewAggregator(params)

	startTime := time.Now()
	if err := aggregator.Process(); err != nil {
		log.Fatalf("Aggregation failed: %v", err)
	}

	rep, err := report.New(cfg.Experiment, cfg.RegionName, aggregator)
	if err != nil {
		log.Fatalf("Failed to prepare report: %v", err)
	}
	if err := rep.WriteAll(cfg.Output); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	if cfg.SQLite != "" {
		if err := rep.WriteSQLite(cfg.SQLite); err != nil {
			log.Fatalf("Failed to write SQLite export: %v", err)
		}
	}

	fmt.Printf("\nAggregation completed successfully in %.2f seconds!\n", time.Since(startTime).Seconds())
	fmt.Printf("Results saved to: %s\n", cfg.Output)
	fmt.Printf("- %s\n", rep.SummaryFileName())
	fmt.Printf("- %s\n", rep.GroupsFileName())
	fmt.Printf("- %s/\n", rep.RawNumbersDirName())
	if cfg.SQLite != "" {
		fmt.Printf("- %s\n", cfg.SQLite)
	}

	if warnings := aggregator.Warnings(); len(warnings) > 0 {
		fmt.Printf("\n%d warnings were reported, see the log above.\n", len(warnings))
	}
}

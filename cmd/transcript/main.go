package main

import (
	"os"

	"github.com/noah-isme/sma-transcript-api/internal/cli"
)

// @title SMA Transcript API
// @version 1.0.0
// @description Final transcript evaluation: criteria, weighted rollups and stored results.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

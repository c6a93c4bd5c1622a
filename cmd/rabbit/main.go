// Command rabbit classifies the given GitHub logins and prints one CSV row
// per result. It exists so the module is a runnable program; the CLI
// front-end itself (flags, output formatting) is intentionally minimal
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/ryansgi/rabbit/internal/core/classifier"
	"github.com/ryansgi/rabbit/internal/core/ghevents"
	"github.com/ryansgi/rabbit/internal/core/mapping"
	"github.com/ryansgi/rabbit/internal/core/version"
	"github.com/ryansgi/rabbit/internal/orchestrator"
	"github.com/ryansgi/rabbit/internal/platform/config"
	"github.com/ryansgi/rabbit/internal/platform/logger"
	pstrings "github.com/ryansgi/rabbit/internal/platform/strings"
)

const defaultModelPath = "resources/models/bimbas.onnx"

func main() {
	var loginsFlag string
	var versionFlag bool
	flag.StringVar(&loginsFlag, "logins", "", "comma-separated list of GitHub logins to classify")
	flag.BoolVar(&versionFlag, "version", false, "print build information and exit")
	flag.Parse()

	if versionFlag {
		v := version.Info()
		fmt.Printf("%s %s (%s, %s)\n", v.Service, v.Version, v.Commit, v.Date)
		return
	}

	logger.Init(logger.FromEnv())
	l := logger.Named("cmd/rabbit")

	root := config.New()
	cfg := root.Prefix("RABBIT_")

	logins := pstrings.IfEmpty(splitLogins(loginsFlag), cfg.MayCSV("LOGINS", nil))
	if len(logins) == 0 {
		l.Fatal().Msg("no logins given: pass -logins or set RABBIT_LOGINS")
	}

	client := ghevents.NewClient(ghevents.Options{
		TokensCSV: cfg.MayString("GH_TOKENS", ""),
	})

	mapper, err := mapping.Load()
	if err != nil {
		l.Fatal().Err(err).Msg("failed to load mapping tables")
	}

	modelPath := cfg.MayString("MODEL_PATH", defaultModelPath)
	predictor := classifier.NewONNXPredictor(cfg.MayString("ONNX_LIB_PATH", ""))
	if err := predictor.Load(modelPath); err != nil {
		l.Fatal().Err(err).Str("path", modelPath).Msg("failed to load classifier model")
	}
	defer func() {
		if err := predictor.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close classifier")
		}
	}()

	orchCfg := orchestrator.Config{
		MinEvents:     cfg.MayInt("MIN_EVENTS", 5),
		MinConfidence: cfg.MayFloat64("MIN_CONFIDENCE", 1.0),
		MaxQueries:    cfg.MayInt("MAX_QUERIES", 3),
		NoWait:        cfg.MayBool("NO_WAIT", false),
	}

	o := orchestrator.New(client, mapper, predictor, orchCfg)

	fmt.Println("contributor,user_type,confidence")
	for result, err := range o.Run(context.Background(), logins) {
		if err != nil {
			l.Fatal().Err(err).Msg("classification failed")
		}
		fmt.Println(formatResult(result))
	}
}

func splitLogins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formatResult(r orchestrator.ContributorResult) string {
	confidence := "-"
	if r.HasConfidence {
		confidence = fmt.Sprintf("%.3f", r.Confidence)
	}
	return fmt.Sprintf("%s,%s,%s", r.Contributor, r.UserType, confidence)
}

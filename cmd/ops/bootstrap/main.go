// Package main implements lodgebook's interactive bootstrap command.
//
// Bootstrap prepares a deployment environment before the service can start:
// it walks an operator through provisioning the PostgreSQL database, prompts
// for the connection URL and service settings, and writes every value to AWS
// SSM Parameter Store under /<env>/lodgebook/. Those are the same parameters
// the config loader resolves at startup through *_SSM_PARAM pointers.
//
// Usage:
//
//	go run ./cmd/ops/bootstrap --env=dev
//	go run ./cmd/ops/bootstrap --env=dev --export-env
//	go run ./cmd/ops/bootstrap --env=prod --profile=lodgebook-prod --region=us-east-1
//
// A session proceeds in order: flags are parsed, the AWS SDK v2 config is
// loaded with the requested profile and region, STS GetCallerIdentity proves
// the active identity, prod targets demand a typed "yes", a banner recaps the
// session, and the inventory walk collects and stores each parameter. With
// --export-env the stored parameters are read back afterwards and written to
// a .env file so local runs share the environment's settings.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Environments the tool is willing to touch.
var validEnvironments = map[string]bool{
	"dev":     true,
	"staging": true,
	"prod":    true,
}

// Banner rules for operator-facing output.
var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
)

// BootstrapContext carries the session state established at startup. It is
// handed to every later phase of the walk.
type BootstrapContext struct {
	Environment string     // target deployment environment (dev/staging/prod)
	AWSProfile  string     // AWS CLI profile, empty for the default credential chain
	AWSRegion   string     // target AWS region
	AccountID   string     // account resolved via STS GetCallerIdentity
	CallerARN   string     // ARN of the authenticated identity
	AWSConfig   aws.Config // resolved SDK config, reused by the SSM phase

	Logger *slog.Logger
}

func main() {
	os.Exit(run())
}

func run() int {
	env := flag.String("env", "", "Target environment (dev/staging/prod) [required]")
	profile := flag.String("profile", "", "AWS CLI profile (empty uses the default credential chain)")
	region := flag.String("region", "us-east-1", "AWS region")
	skipOptional := flag.Bool("skip-optional", false, "Skip optional parameters without prompting")
	exportEnv := flag.Bool("export-env", false, "Write the stored SSM parameters to a .env file once bootstrap finishes")
	exportPath := flag.String("export-env-path", ".env", "Destination for the exported .env file")
	flag.Usage = usage
	flag.Parse()

	if *env == "" {
		fmt.Fprint(os.Stderr, "error: --env is required\n\n")
		flag.Usage()
		return 1
	}
	if !validEnvironments[*env] {
		fmt.Fprintf(os.Stderr, "error: unknown environment %q (expected dev, staging, or prod)\n", *env)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess, err := newSession(ctx, *env, *profile, *region, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		return 1
	}

	// Prod writes are gated behind an explicit typed confirmation.
	if sess.Environment == "prod" && !confirmProduction(sess, os.Stdin, os.Stderr) {
		fmt.Fprintln(os.Stderr, "Aborted. No parameters were written.")
		return 0
	}

	printBanner(os.Stderr, sess)

	runner := NewBootstrapRunner(sess)
	runner.SkipOptional = *skipOptional
	if err := runner.Run(ctx); err != nil {
		logger.Error("bootstrap failed", "error", err)
		return 1
	}

	logger.Info("bootstrap completed", "env", sess.Environment, "account", sess.AccountID, "region", sess.AWSRegion)

	if *exportEnv {
		logger.Info("writing .env export", "path", *exportPath)
		err := ExportEnvFile(ctx, ExportEnvConfig{
			OutputPath:           *exportPath,
			Environment:          sess.Environment,
			SSM:                  runner.SSM,
			Stderr:               os.Stderr,
			IncludeLocalDefaults: true,
		})
		if err != nil {
			logger.Error("exporting .env file", "error", err)
			return 1
		}
		logger.Info(".env export written", "path", *exportPath)
	}

	return 0
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprint(out, "Lodgebook Bootstrap Tool\n\n")
	fmt.Fprint(out, "Walks an operator through database provisioning and seeds the\n")
	fmt.Fprint(out, "AWS SSM parameters the service reads at startup.\n\n")
	fmt.Fprint(out, "Usage:\n")
	fmt.Fprint(out, "  bootstrap --env=dev [--profile=NAME] [--region=REGION] [--export-env]\n\n")
	fmt.Fprint(out, "Flags:\n")
	flag.PrintDefaults()
}

// newSession loads the AWS SDK configuration and proves the active identity
// with STS GetCallerIdentity before anything is written.
func newSession(ctx context.Context, env, profile, region string, logger *slog.Logger) (*BootstrapContext, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	// Credentials resolve through the default chain: environment variables,
	// shared config, then EC2 IMDS.
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	// A short deadline keeps bad credentials from hanging the session.
	whoCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ident, err := sts.NewFromConfig(cfg).GetCallerIdentity(whoCtx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("verifying AWS identity (STS GetCallerIdentity): %w\n"+
			"  credentials may be missing or stale (profile %q, region %q)", err, profile, region)
	}

	account := aws.ToString(ident.Account)
	arn := aws.ToString(ident.Arn)
	logger.Info("AWS identity verified", "account_id", account, "arn", arn, "region", region)

	return &BootstrapContext{
		Environment: env,
		AWSProfile:  profile,
		AWSRegion:   region,
		AccountID:   account,
		CallerARN:   arn,
		AWSConfig:   cfg,
		Logger:      logger,
	}, nil
}

// confirmProduction makes the operator type "yes" (any case, surrounding
// whitespace ignored) before a prod session may continue. Anything else,
// or EOF on in, aborts.
func confirmProduction(bc *BootstrapContext, in io.Reader, w io.Writer) bool {
	fmt.Fprintf(w, "\n%s\n", heavyRule)
	fmt.Fprintln(w, "  WARNING: You are targeting the PRODUCTION environment")
	fmt.Fprintln(w, heavyRule)
	fmt.Fprintf(w, "  Account: %s\n", bc.AccountID)
	fmt.Fprintf(w, "  Region:  %s\n", bc.AWSRegion)
	fmt.Fprintf(w, "  ARN:     %s\n", bc.CallerARN)
	fmt.Fprintf(w, "%s\n\n", heavyRule)
	fmt.Fprint(w, "Type 'yes' to continue: ")

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(sc.Text()), "yes")
}

// printBanner recaps the session before the first prompt appears.
func printBanner(w io.Writer, bc *BootstrapContext) {
	fmt.Fprintf(w, "\n%s\n", lightRule)
	fmt.Fprintln(w, "  Lodgebook Bootstrap")
	fmt.Fprintln(w, lightRule)
	fmt.Fprintf(w, "  Environment:  %s\n", bc.Environment)
	fmt.Fprintf(w, "  AWS Account:  %s\n", bc.AccountID)
	fmt.Fprintf(w, "  AWS Region:   %s\n", bc.AWSRegion)
	fmt.Fprintf(w, "  Identity:     %s\n", bc.CallerARN)
	if bc.AWSProfile != "" {
		fmt.Fprintf(w, "  Profile:      %s\n", bc.AWSProfile)
	}
	fmt.Fprintf(w, "  SSM Prefix:   /%s/lodgebook/\n", bc.Environment)
	fmt.Fprintf(w, "%s\n\n", lightRule)
}

// Command pgrst-token signs a PostgREST bearer token with the gateway's JWT
// secret. The n8n Supabase node sends its "Service Role Secret" verbatim as a
// bearer token, so a self-hosted PostgREST needs a signed token there instead
// of the raw secret.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/bionicotaku/lingo-utils-pgrstjwt"
)

const (
	programName   = "pgrst-token"
	secretEnv     = "PGRST_JWT_SECRET"
	exampleSecret = "n78oYSAI5XiVxH5Ua4CYf4W+q1cS/QuSsbH9moX2onY="
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := newLogger(stderr)

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", "", "Optional .env file; when set, "+secretEnv+" is used if <secret> is omitted")
	fs.Usage = func() { printUsage(stdout) }
	positional := args
	if hasFlags(args) {
		if err := fs.Parse(args); err != nil {
			if !errors.Is(err, flag.ErrHelp) {
				logger.WithError(err).Error("parse flags")
			}
			return 1
		}
		positional = fs.Args()
	}

	var secret string
	if len(positional) > 0 {
		secret = positional[0]
	}
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logger.WithError(err).Warnf("load %s", *envFile)
		}
		if secret == "" {
			secret = os.Getenv(secretEnv)
		}
	}
	if secret == "" {
		printUsage(stdout)
		return 1
	}

	role := pgrstjwt.DefaultRole
	if len(positional) > 1 {
		role = positional[1]
	}
	ttlDays := pgrstjwt.DefaultTTLDays
	if len(positional) > 2 {
		parsed, err := strconv.Atoi(strings.TrimSpace(positional[2]))
		if err != nil {
			logger.WithError(err).Errorf("ttl_days must be an integer, got %q", positional[2])
			return 1
		}
		ttlDays = parsed
	}

	token, err := pgrstjwt.IssueString(secret, role, ttlDays)
	if err != nil {
		if pgrstjwt.IsCode(err, pgrstjwt.ErrCodeTTLOutOfRange) {
			logger.WithError(err).Errorf("ttl_days %d is out of range", ttlDays)
			return 1
		}
		logger.WithError(err).Error("issue token")
		return 1
	}

	printToken(stdout, token, role, ttlDays)
	return 0
}

// hasFlags reports whether args open with -env or "--". Anything else,
// including a secret that starts with "-", is taken as positional.
func hasFlags(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch first := args[0]; {
	case first == "--", first == "-env", first == "--env":
		return true
	case strings.HasPrefix(first, "-env="), strings.HasPrefix(first, "--env="):
		return true
	}
	return false
}

func newLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [-env FILE] <secret> [role] [ttl_days]\n", programName)
	fmt.Fprintln(w, "\nExamples:")
	fmt.Fprintf(w, "  %s '%s'\n", programName, exampleSecret)
	fmt.Fprintf(w, "  %s '%s' %s %d\n", programName, exampleSecret, pgrstjwt.DefaultRole, pgrstjwt.DefaultTTLDays)
	fmt.Fprintln(w, "\nA secret may start with '-'; only a leading -env FILE (or --) is read as a flag.")
}

func printToken(w io.Writer, token, role string, ttlDays int) {
	fmt.Fprintf(w, "\nJWT token generated for role '%s':\n", role)
	fmt.Fprintf(w, "%s\n\n", token)
	fmt.Fprintf(w, "Length: %d characters\n", len(token))
	fmt.Fprintln(w, `Use this token in the "Service Role Secret" field of the n8n Supabase credential.`)
	fmt.Fprintf(w, "Token expires in %d days.\n\n", ttlDays)
}

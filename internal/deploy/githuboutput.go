package deploy

import (
	"fmt"
	"os"
)

// githubOutputEnv points at the step-output file inside GitHub Actions.
const githubOutputEnv = "GITHUB_OUTPUT"

// AppendGitHubOutput appends a key=value output line when running under
// GitHub Actions. Outside Actions (env var unset) it is a no-op, so
// local runs behave identically.
func AppendGitHubOutput(key, value string) error {
	path := os.Getenv(githubOutputEnv)
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s file: %w", githubOutputEnv, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", githubOutputEnv, err)
	}
	return nil
}

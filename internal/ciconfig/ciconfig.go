// Package ciconfig parses the environment variables a GitHub Action
// invocation exposes into a typed, validated Config (SPEC_FULL.md §4.8).
package ciconfig

import (
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Config is the fully-resolved configuration for one driver run.
type Config struct {
	DataPath  string
	RepoToken string
	GCSBucket string

	// GCSCredentialsJSON, DBURL are optional.
	GCSCredentialsJSON string
	DBURL              string

	EventName string
	CommitSHA string

	RepoOwner string
	RepoName  string
}

const (
	envDataPath           = "INPUT_DATA-PATH"
	envRepoToken          = "INPUT_REPO-TOKEN"
	envGCSBucket          = "INPUT_GCS-BUCKET"
	envGCSCredentialsJSON = "INPUT_GCS-CREDENTIALS-JSON"
	envDBURL              = "INPUT_DB-URL"
	envEventName          = "GITHUB_EVENT_NAME"
	envCommitSHA          = "GITHUB_SHA"
	envRepository         = "GITHUB_REPOSITORY"
)

// FromEnv reads and validates the Action environment. Every missing
// required variable is collected (via go-multierror) so a misconfigured run
// reports all of its problems at once instead of one at a time.
func FromEnv() (Config, error) {
	var result *multierror.Error

	dataPath := requireEnv(envDataPath, &result)
	repoToken := requireEnv(envRepoToken, &result)
	gcsBucket := requireEnv(envGCSBucket, &result)
	eventName := requireEnv(envEventName, &result)
	commitSHA := requireEnv(envCommitSHA, &result)
	repository := requireEnv(envRepository, &result)

	owner, name := "", ""
	if repository != "" {
		var err error
		owner, name, err = splitRepository(repository)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return Config{}, err
	}

	return Config{
		DataPath:           dataPath,
		RepoToken:          repoToken,
		GCSBucket:          gcsBucket,
		GCSCredentialsJSON: os.Getenv(envGCSCredentialsJSON),
		DBURL:              os.Getenv(envDBURL),
		EventName:          eventName,
		CommitSHA:          commitSHA,
		RepoOwner:          owner,
		RepoName:           name,
	}, nil
}

func requireEnv(name string, result **multierror.Error) string {
	v := os.Getenv(name)
	if v == "" {
		*result = multierror.Append(*result, errors.Errorf("missing required environment variable %s", name))
	}
	return v
}

func splitRepository(repository string) (owner, name string, err error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("%s must be of the form owner/name, got %q", envRepository, repository)
	}
	return parts[0], parts[1], nil
}

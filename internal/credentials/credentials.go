// Package credentials loads the multi-org credentials file and watches it for
// changes.
package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/j-veylop/billing-report/internal/config"
	"github.com/j-veylop/billing-report/internal/models"
)

// credentialsFile is the wrapped form of the credentials file.
type credentialsFile struct {
	Orgs []models.Credential `json:"orgs"`
}

// Load reads and validates the credentials file at path. Every problem with
// the file is reported as a *config.ConfigError naming the path.
func Load(path string) ([]models.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &config.ConfigError{Flag: path, Reason: "cannot read credentials file", Err: err}
	}

	creds, err := Parse(data)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Flag = path
			return nil, cfgErr
		}
		return nil, &config.ConfigError{Flag: path, Err: err}
	}
	return creds, nil
}

// Parse decodes credentials given either as a bare JSON array of
// {api_key, org_id, org_name} objects or wrapped as {"orgs": [...]}.
func Parse(data []byte) ([]models.Credential, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &config.ConfigError{Reason: "credentials file is empty"}
	}

	var creds []models.Credential
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &creds); err != nil {
			return nil, &config.ConfigError{Reason: "malformed credentials file", Err: err}
		}
	case '{':
		var file credentialsFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, &config.ConfigError{Reason: "malformed credentials file", Err: err}
		}
		creds = file.Orgs
	default:
		return nil, &config.ConfigError{Reason: "malformed credentials file: want a JSON array of orgs"}
	}

	if len(creds) == 0 {
		return nil, &config.ConfigError{Reason: "credentials file lists no orgs"}
	}

	for i := range creds {
		creds[i].APIKey = strings.TrimSpace(creds[i].APIKey)
		creds[i].OrgID = strings.TrimSpace(creds[i].OrgID)
		creds[i].OrgName = strings.TrimSpace(creds[i].OrgName)
		if err := validate(creds[i]); err != nil {
			return nil, &config.ConfigError{Reason: fmt.Sprintf("entry %d", i), Err: err}
		}
	}
	return creds, nil
}

func validate(c models.Credential) error {
	if c.APIKey == "" {
		return errors.New("api_key is required")
	}
	if c.OrgID != "" {
		if _, err := uuid.Parse(c.OrgID); err != nil {
			return fmt.Errorf("org_id %q is not a UUID", c.OrgID)
		}
	}
	return nil
}

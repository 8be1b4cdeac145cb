package upstream

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/models"
)

// ResolveOrg determines the org behind cred. When both the org id and name are
// already known no request is made. Otherwise the current org of the key is
// read, scoped by cred.OrgID when set. A reply without an id, or with an id
// other than the one asked for, is a ResolutionError.
func (c *Client) ResolveOrg(ctx context.Context, cred models.Credential) (models.OrgIdentity, error) {
	if cred.HasIdentity() {
		return models.OrgIdentity{OrgID: cred.OrgID, OrgName: cred.OrgName}, nil
	}

	resp, err := c.get(ctx, cred, currentOrgPath, nil)
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) && upErr.Status == http.StatusForbidden && cred.OrgID == "" {
			logger.Warn("got 403 reading the current org with no org id; try passing --org-id <uuid> (Settings -> Organization)",
				"key", cred.RedactedKey())
		}
		return models.OrgIdentity{}, err
	}

	var org models.OrgIdentity
	if err := resp.decode(&org); err != nil {
		return models.OrgIdentity{}, err
	}
	org.OrgID = strings.TrimSpace(org.OrgID)

	switch {
	case org.OrgID == "":
		return models.OrgIdentity{}, &ResolutionError{Want: cred.OrgID}
	case cred.OrgID != "" && models.OrgKey(cred.OrgID) != org.Key():
		return models.OrgIdentity{}, &ResolutionError{Want: cred.OrgID, Got: org.OrgID}
	}

	if cred.OrgName != "" {
		org.OrgName = cred.OrgName
	}
	if org.OrgName == "" {
		org.OrgName = org.OrgID
	}
	return org, nil
}

// ListWorkspaces returns the workspaces of the credential's org in upstream order.
func (c *Client) ListWorkspaces(ctx context.Context, cred models.Credential) ([]models.Workspace, error) {
	resp, err := c.get(ctx, cred, workspacesPath, nil)
	if err != nil {
		return nil, err
	}

	var workspaces []models.Workspace
	if err := resp.decode(&workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

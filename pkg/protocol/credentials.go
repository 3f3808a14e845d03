package protocol

import (
	"context"

	"github.com/webpilot-io/webpilot/pkg/models"
)

// CredentialStore resolves stored credentials by id. The store itself
// (including encryption at rest) is an external collaborator; the core only
// looks up. An unknown id resolves to (nil, nil).
type CredentialStore interface {
	GetCredential(ctx context.Context, id string) (*models.Credential, error)
}

package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/webpilot-io/webpilot/pkg/models"
)

// CredentialStore resolves credentials from <root>/credentials, one JSON
// document per id. Encryption at rest belongs to the external credential
// manager that writes these files; this store only reads.
type CredentialStore struct {
	root string
}

func NewCredentialStore(root string) *CredentialStore {
	return &CredentialStore{root: root}
}

// GetCredential returns (nil, nil) for an unknown id.
func (s *CredentialStore) GetCredential(_ context.Context, id string) (*models.Credential, error) {
	filePath := filepath.Clean(path.Join(s.root, "credentials", id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read credential %s: %w", id, err)
	}

	var credential models.Credential
	if err := json.Unmarshal(body, &credential); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential %s: %w", id, err)
	}

	return &credential, nil
}

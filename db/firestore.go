package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// NewFirestoreClient creates a Firestore client for projectID. When
// credentialsFile is empty, application default credentials are used.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string, log *zap.SugaredLogger) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	log.Infof("✓ Firestore client created for project %s", projectID)
	return client, nil
}

// Package cdn purges recipe images from the CloudFront edge
package cdn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvalidationAPI is the subset of the CloudFront client used here
type InvalidationAPI interface {
	CreateInvalidationWithContext(ctx aws.Context, input *cloudfront.CreateInvalidationInput, opts ...request.Option) (*cloudfront.CreateInvalidationOutput, error)
}

// KeyFunc maps a recipe to its object key
type KeyFunc func(id uuid.UUID) string

// Invalidator issues CloudFront invalidations for recipe images
type Invalidator struct {
	client         InvalidationAPI
	distributionID string
	keyFor         KeyFunc
	logger         *zap.Logger
	now            func() time.Time
}

// NewInvalidator creates a CloudFront client for the configured distribution
func NewInvalidator(cfg *config.StorageConfig, keyFor KeyFunc, logger *zap.Logger) (*Invalidator, error) {
	// CloudFront is global but signs requests against us-east-1
	awsCfg := &aws.Config{Region: aws.String("us-east-1")}
	if cfg.S3AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewInvalidatorWithClient(cloudfront.New(sess), cfg.CloudFrontDistributionID, keyFor, logger), nil
}

// NewInvalidatorWithClient wraps an existing client
func NewInvalidatorWithClient(client InvalidationAPI, distributionID string, keyFor KeyFunc, logger *zap.Logger) *Invalidator {
	return &Invalidator{
		client:         client,
		distributionID: distributionID,
		keyFor:         keyFor,
		logger:         logger.Named("cdn"),
		now:            time.Now,
	}
}

// InvalidateRecipeImage purges the image path of recipe id
func (i *Invalidator) InvalidateRecipeImage(ctx context.Context, id uuid.UUID) error {
	path := i.keyFor(id)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	input := &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(i.distributionID),
		InvalidationBatch: &cloudfront.InvalidationBatch{
			CallerReference: aws.String(fmt.Sprintf("cookscabinet-%s-%d", id, i.now().UnixNano())),
			Paths: &cloudfront.Paths{
				Quantity: aws.Int64(1),
				Items:    []*string{aws.String(path)},
			},
		},
	}

	result, err := i.client.CreateInvalidationWithContext(ctx, input)
	if err != nil {
		i.logger.Error("CloudFront invalidation failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("invalidate %s: %w", path, err)
	}

	i.logger.Info("CloudFront invalidation created",
		zap.String("invalidation_id", aws.StringValue(result.Invalidation.Id)),
		zap.String("path", path))
	return nil
}

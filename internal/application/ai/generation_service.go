// Package ai runs the photo to recipe generation chain
package ai

import (
	"context"
	stderrors "errors"
	"time"

	domainai "github.com/cookscabinet/cabinet/internal/domain/ai"
	"github.com/cookscabinet/cabinet/internal/infrastructure/imaging"
	"github.com/cookscabinet/cabinet/internal/infrastructure/monitoring"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/cookscabinet/cabinet/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const tracerName = "github.com/cookscabinet/cabinet/internal/application/ai"

// Config controls the generation chain
type Config struct {
	// Timeout bounds the whole chain including the wait for a slot
	Timeout       time.Duration
	MaxConcurrent int64
	JPEGQuality   int
	MaxImageBytes int64
	// MaxPixels caps decoded image dimensions; zero means imaging.DefaultMaxPixels
	MaxPixels int
}

// Metrics receives stage and outcome observations
type Metrics interface {
	GenerationStarted()
	GenerationFinished(duration time.Duration, err error)
	ObserveStage(stage string, duration time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) GenerationStarted()                        {}
func (nopMetrics) GenerationFinished(time.Duration, error)   {}
func (nopMetrics) ObserveStage(string, time.Duration, error) {}

// GenerationService turns a photo into a saved recipe with an illustrative image
type GenerationService struct {
	inferrer  outbound.RecipeInferrer
	generator outbound.ImageGenerator
	fetcher   outbound.ImageFetcher
	recipes   inbound.RecipeService
	metrics   Metrics
	slots     *semaphore.Weighted
	tracer    trace.Tracer
	cfg       Config
	logger    *zap.Logger
}

var _ inbound.GenerationService = (*GenerationService)(nil)

// NewGenerationService creates the generation service. metrics may be nil.
func NewGenerationService(
	inferrer outbound.RecipeInferrer,
	generator outbound.ImageGenerator,
	fetcher outbound.ImageFetcher,
	recipes inbound.RecipeService,
	metrics Metrics,
	cfg Config,
	logger *zap.Logger,
) *GenerationService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 4
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = imaging.DefaultQuality
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 20 << 20
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &GenerationService{
		inferrer:  inferrer,
		generator: generator,
		fetcher:   fetcher,
		recipes:   recipes,
		metrics:   metrics,
		slots:     semaphore.NewWeighted(cfg.MaxConcurrent),
		tracer:    otel.Tracer(tracerName),
		cfg:       cfg,
		logger:    logger.Named("generation-service"),
	}
}

// GenerateFromImage runs the chain for one photo. Nothing is saved unless
// every stage succeeds.
func (s *GenerationService) GenerateFromImage(ctx context.Context, cmd inbound.GenerateRecipeCommand) (dto *inbound.RecipeDTO, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "recipe.generate")
	defer span.End()

	start := time.Now()
	s.metrics.GenerationStarted()
	defer func() {
		s.metrics.GenerationFinished(time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var source []byte
	if err := s.stage(ctx, domainai.StageValidate, func(ctx context.Context) error {
		var verr error
		source, verr = s.prepareSource(cmd.Image)
		return verr
	}); err != nil {
		return nil, err
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, errors.NewTimeoutError("waiting for a generation slot", err)
	}
	defer s.slots.Release(1)

	prompt := cmd.Prompt
	if prompt == "" {
		prompt = domainai.DefaultRequest
	}

	var response string
	if err := s.stage(ctx, domainai.StageInfer, func(ctx context.Context) error {
		var ierr error
		response, ierr = s.inferrer.InferRecipe(ctx, outbound.InferenceRequest{
			Instruction: domainai.RecipeInstruction,
			Prompt:      prompt,
			Image:       source,
			MIMEType:    "image/jpeg",
		})
		if ierr != nil {
			return upstreamError(ctx, domainai.StageInfer, ierr)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var raw string
	if err := s.stage(ctx, domainai.StageExtract, func(ctx context.Context) error {
		var ok bool
		raw, ok = domainai.ExtractJSON(response)
		if !ok {
			return errors.NewAIResponseInvalidError(string(domainai.StageExtract), domainai.ErrNoJSONBlock)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var draft *domainai.RecipeDraft
	if err := s.stage(ctx, domainai.StageDecode, func(ctx context.Context) error {
		var derr error
		draft, derr = domainai.DecodeDraft(raw)
		if derr != nil {
			return errors.NewAIResponseInvalidError(string(domainai.StageDecode), derr)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("recipe.title", draft.Title))

	ingredients := draft.IngredientLines()

	var generated *outbound.GeneratedImage
	if err := s.stage(ctx, domainai.StageGenerateImage, func(ctx context.Context) error {
		var gerr error
		generated, gerr = s.generator.GenerateImage(ctx, domainai.ImagePrompt(draft.Title, draft.Description, ingredients))
		if gerr != nil {
			return upstreamError(ctx, domainai.StageGenerateImage, gerr)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var picture []byte
	if err := s.stage(ctx, domainai.StageDownloadImage, func(ctx context.Context) error {
		data := generated.Data
		if len(data) == 0 {
			var ferr error
			data, ferr = s.fetcher.Fetch(ctx, generated.URL)
			if ferr != nil {
				if ctx.Err() != nil {
					return errors.NewTimeoutError("recipe generation", ferr)
				}
				return errors.NewExternalServiceError("image host", ferr).
					WithMetadata("stage", string(domainai.StageDownloadImage))
			}
		}
		var nerr error
		picture, nerr = imaging.NormalizeJPEG(data, s.cfg.JPEGQuality, s.cfg.MaxPixels)
		if nerr != nil {
			return errors.NewAIResponseInvalidError(string(domainai.StageDownloadImage), nerr)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.stage(ctx, domainai.StageSave, func(ctx context.Context) error {
		var serr error
		dto, serr = s.recipes.CreateRecipe(ctx, inbound.CreateRecipeCommand{
			Title:        draft.Title,
			Description:  draft.Description,
			Ingredients:  ingredients,
			Instructions: draft.Instructions,
			Image:        picture,
		})
		if serr != nil && errors.Is(serr, errors.CodeValidationFailed) {
			// The model produced a recipe the domain rejects
			return errors.NewAIResponseInvalidError(string(domainai.StageSave), serr)
		}
		return serr
	}); err != nil {
		return nil, err
	}

	monitoring.LoggerWithContext(ctx, s.logger).Info("Recipe generated",
		zap.String("recipe_id", dto.ID.String()),
		zap.String("title", dto.Title),
		zap.Duration("duration", time.Since(start)))

	return dto, nil
}

// prepareSource checks the uploaded photo and re-encodes it as JPEG
func (s *GenerationService) prepareSource(image []byte) ([]byte, error) {
	if len(image) == 0 {
		return nil, errors.NewImageError(errors.CodeImageRequired,
			"An image is required to generate a recipe.",
			"Take a photo or choose one from the photo album.")
	}
	if int64(len(image)) > s.cfg.MaxImageBytes {
		return nil, errors.NewImageError(errors.CodeImageTooLarge,
			"Image is too large.",
			"Use a smaller photo.").WithMetadata("max_bytes", s.cfg.MaxImageBytes)
	}

	normalized, err := imaging.NormalizeJPEG(image, s.cfg.JPEGQuality, s.cfg.MaxPixels)
	if stderrors.Is(err, imaging.ErrTooLarge) {
		return nil, errors.NewImageError(errors.CodeImageTooLarge,
			"Image is too large.",
			"Use a smaller photo.").WithMetadata("max_pixels", s.cfg.MaxPixels).WithCause(err)
	}
	if err != nil {
		return nil, errors.NewImageError(errors.CodeImageUnsupported,
			"Image format is not supported.",
			"Use a JPEG or PNG photo instead.").WithCause(err)
	}
	return normalized, nil
}

// stage runs fn inside its own span and records its outcome
func (s *GenerationService) stage(ctx context.Context, stage domainai.Stage, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "recipe.generate."+string(stage))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	s.metrics.ObserveStage(string(stage), duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitoring.LoggerWithContext(ctx, s.logger).Error("Recipe generation failed",
			zap.String("stage", string(stage)),
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	s.logger.Debug("Recipe generation stage completed",
		zap.String("stage", string(stage)),
		zap.Duration("duration", duration))
	return nil
}

func upstreamError(ctx context.Context, stage domainai.Stage, err error) error {
	if ctx.Err() != nil || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("recipe generation", err).WithMetadata("stage", string(stage))
	}
	return errors.NewAIServiceError(string(stage), err)
}

package donation

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sharehub/backend/internal/domain/donation"
	"github.com/sharehub/backend/internal/domain/shared"
	"github.com/sharehub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DeletedMessage is the confirmation returned by Delete.
const DeletedMessage = "Donation deleted successfully"

// ServiceConfig holds configuration for the donation service
type ServiceConfig struct {
	// NotifyOnCreate enables the summary email after a successful create
	NotifyOnCreate bool
	// EmailSubject overrides DefaultEmailSubject when set
	EmailSubject string
}

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		NotifyOnCreate: true,
		EmailSubject:   DefaultEmailSubject,
	}
}

// Service handles donation record operations
type Service struct {
	repo     donation.Repository
	uploads  *UploadHandler
	notifier Notifier
	validate *validator.Validate
	logger   *zap.Logger
	config   ServiceConfig
}

// NewService creates a new donation Service. notifier may be nil, which
// disables notifications.
func NewService(
	repo donation.Repository,
	uploads *UploadHandler,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		uploads:  uploads,
		notifier: notifier,
		validate: newFormValidator(),
		logger:   logger,
		config:   DefaultServiceConfig(),
	}
}

// SetConfig sets the service configuration
func (s *Service) SetConfig(config ServiceConfig) {
	s.config = config
}

// Create validates and stores a new donation, saving its image first when one
// was uploaded, then queues the summary email.
func (s *Service) Create(ctx context.Context, req CreateDonationRequest) (*DonationResponse, error) {
	req.normalize()
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	qty, ok := parseQuantity(req.Quantity)
	if !ok {
		qty = donation.DefaultQuantity
	}
	terms, _ := parseTerms(req.Terms)

	d, err := donation.NewDonation(donation.Draft{
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Category:      req.Category,
		ProductName:   req.ProductName,
		Description:   req.Description,
		Quality:       req.Quality,
		Quantity:      qty,
		TermsAccepted: terms,
	})
	if err != nil {
		return nil, err
	}

	if req.Image != nil {
		ref, err := s.uploads.Save(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		d.ImageRef = &ref
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if d.ImageRef != nil {
			s.discardImage(ctx, *d.ImageRef)
		}
		return nil, s.translateError(ctx, err)
	}

	imageURL := s.imageURL(ctx, d)
	s.notifyCreated(ctx, d, imageURL)

	resp := ToDonationResponse(d, imageURL)
	return &resp, nil
}

// List returns every donation in creation order.
func (s *Service) List(ctx context.Context) ([]DonationResponse, error) {
	donations, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.translateError(ctx, err)
	}
	responses := make([]DonationResponse, len(donations))
	for i := range donations {
		responses[i] = ToDonationResponse(&donations[i], s.imageURL(ctx, &donations[i]))
	}
	return responses, nil
}

// GetByID returns a single donation.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*DonationResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(ctx, err)
	}
	resp := ToDonationResponse(d, s.imageURL(ctx, d))
	return &resp, nil
}

// Update applies a partial update. A new image replaces the stored one and the
// previous file is removed once the record has been saved.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateDonationRequest) (*DonationResponse, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(ctx, err)
	}

	patch := req.toPatch()
	if patch.IsEmpty() && req.Image == nil {
		resp := ToDonationResponse(existing, s.imageURL(ctx, existing))
		return &resp, nil
	}

	var newRef string
	if req.Image != nil {
		newRef, err = s.uploads.Save(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		patch.ImageRef = shared.Some(newRef)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.discardImage(ctx, newRef)
		return nil, s.translateError(ctx, err)
	}

	if newRef != "" && existing.HasImage() && *existing.ImageRef != newRef {
		s.discardImage(ctx, *existing.ImageRef)
	}

	resp := ToDonationResponse(updated, s.imageURL(ctx, updated))
	return &resp, nil
}

// Delete permanently removes a donation and its image.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*DeleteDonationResponse, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, s.translateError(ctx, err)
	}
	if deleted.HasImage() {
		s.discardImage(ctx, *deleted.ImageRef)
	}
	s.log(ctx).Info("donation deleted", zap.String("donation_id", id.String()))
	return &DeleteDonationResponse{Message: DeletedMessage}, nil
}

func (s *Service) validateRequest(req CreateDonationRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		if fe.Tag() == "required" {
			return shared.NewValidationError(fe.Field() + " is required")
		}
		return shared.NewValidationError(fe.Field() + " is invalid")
	}
	return shared.NewValidationError(err.Error())
}

// notifyCreated queues the summary email. Failures never reach the caller.
func (s *Service) notifyCreated(ctx context.Context, d *donation.Donation, imageURL string) {
	if s.notifier == nil || !s.config.NotifyOnCreate {
		return
	}
	msg, err := ComposeDonationEmail(d, s.config.EmailSubject, imageURL)
	if err != nil {
		s.log(ctx).Error("failed to compose donation email",
			zap.String("donation_id", d.ID.String()),
			zap.Error(err))
		return
	}
	msg.RequestID = logger.GetRequestID(ctx)
	if err := s.notifier.Enqueue(ctx, msg); err != nil {
		s.log(ctx).Warn("failed to queue donation email",
			zap.String("donation_id", d.ID.String()),
			zap.Error(err))
	}
}

func (s *Service) imageURL(ctx context.Context, d *donation.Donation) string {
	if !d.HasImage() || s.uploads == nil {
		return ""
	}
	url, err := s.uploads.URL(ctx, *d.ImageRef)
	if err != nil {
		s.log(ctx).Warn("failed to resolve image url",
			zap.String("donation_id", d.ID.String()),
			zap.Error(err))
		return ""
	}
	return url
}

func (s *Service) discardImage(ctx context.Context, ref string) {
	if ref == "" || s.uploads == nil {
		return
	}
	if err := s.uploads.Discard(ctx, ref); err != nil {
		s.log(ctx).Warn("failed to delete image from storage",
			zap.String("image_ref", ref),
			zap.Error(err))
	}
}

// log returns the service logger tagged with the request ID carried by ctx.
func (s *Service) log(ctx context.Context) *zap.Logger {
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		return s.logger.With(zap.String("request_id", requestID))
	}
	return s.logger
}

// translateError maps repository errors onto the donation error set.
func (s *Service) translateError(ctx context.Context, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return donation.ErrDonationNotFound
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	s.log(ctx).Error("donation storage failure", zap.Error(err))
	return shared.NewStorageError(err.Error())
}

// newFormValidator reports fields by their form names.
func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

package services

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"user-registry-api/internal/application/ports"
	domain "user-registry-api/internal/domain/user"
	"user-registry-api/internal/infrastructure/mq"
	"user-registry-api/internal/interface/api/rest/dto/user"
)

type UserService struct {
	userRepository domain.Repository
	uploads        ports.UploadService
	events         ports.EventPublisher
	logger         *zap.Logger
	mCounter       *prometheus.CounterVec
}

func NewUserService(
	userRepository domain.Repository,
	uploads ports.UploadService,
	events ports.EventPublisher,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) ports.UserService {
	return &UserService{
		userRepository: userRepository,
		uploads:        uploads,
		events:         events,
		logger:         logger,
		mCounter:       mCounter,
	}
}

func (us *UserService) FindUsers(ctx context.Context) (domain.Users, error) {
	return us.userRepository.FetchUsers(ctx)
}

func (us *UserService) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return us.userRepository.FetchUserByID(ctx, id)
}

// CreateUser validates u, stores the optional picture and inserts the record.
// The picture is removed again when the insert fails.
func (us *UserService) CreateUser(
	ctx context.Context,
	u domain.User,
	picture *multipart.FileHeader,
) (*domain.User, error) {
	u = domain.Normalize(u)
	u.ProfilePicture = nil

	if picture != nil {
		if err := us.uploads.Check(picture); err != nil {
			return nil, err
		}
	}
	if v := domain.Validate(u); v != nil {
		return nil, v
	}

	// fast path only, the unique index decides
	_, err := us.userRepository.FetchUserByEmail(ctx, u.Email)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if picture != nil {
		p, err := us.uploads.Save(ctx, picture)
		if err != nil {
			return nil, err
		}
		u.ProfilePicture = &p
	}

	uRet, err := us.userRepository.CreateUser(ctx, u)
	if err != nil {
		if u.ProfilePicture != nil {
			us.removeFile(ctx, *u.ProfilePicture)
		}
		return nil, err
	}

	us.publish(ctx, http.MethodPost, uRet)
	us.mCounter.WithLabelValues("user_created_total").Inc()

	return uRet, nil
}

// UpdateUser merges patch into the stored record and revalidates the result.
// A new picture replaces the old one, which is removed after the update succeeds.
func (us *UserService) UpdateUser(
	ctx context.Context,
	id string,
	patch domain.Patch,
	picture *multipart.FileHeader,
) (*domain.User, error) {
	current, err := us.userRepository.FetchUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if picture != nil {
		if err = us.uploads.Check(picture); err != nil {
			return nil, err
		}
	}

	patch = domain.NormalizePatch(patch)
	patch.ProfilePicture = nil
	if v := domain.Validate(patch.Apply(*current)); v != nil {
		return nil, v
	}

	var newPicture string
	if picture != nil {
		if newPicture, err = us.uploads.Save(ctx, picture); err != nil {
			return nil, err
		}
		patch.ProfilePicture = &newPicture
	}

	uRet, err := us.userRepository.UpdateUser(ctx, id, patch)
	if err != nil {
		if newPicture != "" {
			us.removeFile(ctx, newPicture)
		}
		return nil, err
	}

	if newPicture != "" && current.ProfilePicture != nil && *current.ProfilePicture != newPicture {
		us.removeFile(ctx, *current.ProfilePicture)
	}

	us.publish(ctx, http.MethodPut, uRet)
	us.mCounter.WithLabelValues("user_updated_total").Inc()

	return uRet, nil
}

func (us *UserService) DeleteUser(ctx context.Context, id string) error {
	u, err := us.userRepository.DeleteUser(ctx, id)
	if err != nil {
		return err
	}

	if u.ProfilePicture != nil {
		us.removeFile(ctx, *u.ProfilePicture)
	}

	us.publish(ctx, http.MethodDelete, u)
	us.mCounter.WithLabelValues("user_deleted_total").Inc()

	return nil
}

func (us *UserService) removeFile(ctx context.Context, publicPath string) {
	if err := us.uploads.Remove(ctx, publicPath); err != nil {
		us.logger.Warn("remove profile picture", zap.String("path", publicPath), zap.Error(err))
	}
}

// publish is best-effort: a broker failure never fails the request.
func (us *UserService) publish(ctx context.Context, method string, u *domain.User) {
	e := mq.Event{
		Id:      uuid.New(),
		TS:      time.Now(),
		Method:  method,
		UserID:  u.ID.String(),
		Payload: user.ToResponseUser(*u),
	}
	if err := us.events.Publish(ctx, e); err != nil {
		us.logger.Error("mq publish error", zap.String("user_id", e.UserID), zap.Error(err))
		us.mCounter.WithLabelValues("event_publish_failed_total").Inc()
	}
}

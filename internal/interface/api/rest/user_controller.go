package rest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-registry-api/internal/application/ports"
	"user-registry-api/internal/application/services"
	domain "user-registry-api/internal/domain/user"
	"user-registry-api/internal/interface/api/rest/dto/user"
	"user-registry-api/internal/interface/api/rest/validator"
)

// FieldProfilePicture is the multipart field carrying the image.
const FieldProfilePicture = "profilePicture"

const (
	msgAllFieldsRequired = "All fields are required."
	msgUserExists        = "User already exists."
	msgUserCreated       = "User created successfully."
	msgNoUsers           = "No users found."
	msgIDRequired        = "User ID is required."
	msgInvalidID         = "Invalid user ID."
	msgUserNotFound      = "User not found."
	msgUserUpdated       = "User updated successfully."
	msgUserDeleted       = "User deleted successfully."
	msgInvalidBody       = "Invalid request body."
	msgInvalidFileType   = "Invalid file type. Only JPEG, JPG, PNG and GIF images are allowed."
	msgFileTooLarge      = "File too large. Maximum size is 5MB."
)

var errInvalidBody = errors.New("invalid request body")

type UserController struct {
	userService   ports.UserService
	uploadService ports.UploadService
	logger        *zap.Logger
}

func NewUserController(
	r gin.IRouter,
	userService ports.UserService,
	uploadService ports.UploadService,
	logger *zap.Logger,
) *UserController {
	uc := &UserController{
		userService:   userService,
		uploadService: uploadService,
		logger:        logger,
	}

	r.POST(RouteCreateUser, uc.CreateUserHandler)
	r.GET(RouteUsers, uc.GetUsersHandler)
	r.GET(RouteUser, uc.GetUserHandler)
	r.PUT(RouteUpdateUser, uc.UpdateUserHandler)
	r.DELETE(RouteDeleteUser, uc.DeleteUserHandler)

	return uc
}

func (uc *UserController) CreateUserHandler(c *gin.Context) {
	picture, err := pictureFromRequest(c)
	if err != nil {
		uc.respondError(c, "CreateUser", err)
		return
	}
	if picture != nil {
		if err = uc.uploadService.Check(picture); err != nil {
			uc.respondError(c, "CreateUser", err)
			return
		}
	}

	req, err := bindRequest(c)
	if err != nil {
		uc.respondError(c, "CreateUser", err)
		return
	}
	if !validator.HasRequiredFields(req) {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgAllFieldsRequired})
		return
	}

	u, err := uc.userService.CreateUser(c.Request.Context(), user.ToDomainUser(req), picture)
	if err != nil {
		uc.respondError(c, "CreateUser", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": msgUserCreated,
		"data":    user.ToResponseUser(*u),
	})
}

func (uc *UserController) GetUsersHandler(c *gin.Context) {
	users, err := uc.userService.FindUsers(c.Request.Context())
	if err != nil {
		uc.respondError(c, "FindUsers", err)
		return
	}
	if len(users) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": msgNoUsers})
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUsers(users))
}

func (uc *UserController) GetUserHandler(c *gin.Context) {
	id, ok := validator.UserID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgIDRequired})
		return
	}

	u, err := uc.userService.FindUserByID(c.Request.Context(), id)
	if err != nil {
		uc.respondError(c, "FindUserByID", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) UpdateUserHandler(c *gin.Context) {
	id, ok := validator.UserID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgIDRequired})
		return
	}

	picture, err := pictureFromRequest(c)
	if err != nil {
		uc.respondError(c, "UpdateUser", err)
		return
	}

	req, err := bindRequest(c)
	if err != nil {
		uc.respondError(c, "UpdateUser", err)
		return
	}

	u, err := uc.userService.UpdateUser(c.Request.Context(), id, user.ToDomainPatch(req), picture)
	if err != nil {
		uc.respondError(c, "UpdateUser", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": msgUserUpdated,
		"data":    user.ToResponseUser(*u),
	})
}

func (uc *UserController) DeleteUserHandler(c *gin.Context) {
	id, ok := validator.UserID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgIDRequired})
		return
	}

	if err := uc.userService.DeleteUser(c.Request.Context(), id); err != nil {
		uc.respondError(c, "DeleteUser", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgUserDeleted})
}

// respondError maps domain and upload failures onto status codes.
// Anything unrecognised is a 500 carrying the error text.
func (uc *UserController) respondError(c *gin.Context, op string, err error) {
	var violations domain.Violations
	switch {
	case errors.As(err, &violations):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": violations.Error(),
			"errors":  violations,
		})
	case errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgUserExists})
	case errors.Is(err, domain.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidID})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": msgUserNotFound})
	case errors.Is(err, services.ErrInvalidFileType):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidFileType})
	case errors.Is(err, services.ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgFileTooLarge})
	case errors.Is(err, errInvalidBody):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody, "error": err.Error()})
	default:
		uc.logger.Error(op+"() error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"errorMessage": err.Error()})
	}
}

// pictureFromRequest returns the uploaded picture or nil when the request carries none.
func pictureFromRequest(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(FieldProfilePicture)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, bindError(err)
	}
}

// bindRequest reads the text fields. An empty JSON body binds as no fields.
func bindRequest(c *gin.Context) (user.Request, error) {
	var req user.Request
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		return user.Request{}, bindError(err)
	}
	return req, nil
}

func bindError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return services.ErrFileTooLarge
	}
	return fmt.Errorf("%w: %v", errInvalidBody, err)
}

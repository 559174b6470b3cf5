package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"noodlemap/pkg/models"
)

// statusFor maps a store error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrUsernameExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrShopNotFound),
		errors.Is(err, models.ErrReviewNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyContent),
		errors.Is(err, models.ErrContentTooLong),
		errors.Is(err, models.ErrRatingRange),
		errors.Is(err, models.ErrRatingOnReply),
		errors.Is(err, models.ErrRatingMissing),
		errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), models.Fail(err.Error()))
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid "+name))
		return 0, false
	}
	return id, true
}

// pageParams parses page/size with listing defaults.
func pageParams(c *gin.Context, defaultSize int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultSize)))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = defaultSize
	}
	return page, size
}

// sortParams parses sortBy/sortDir, restricted to allowed fields.
func sortParams(c *gin.Context, allowed ...string) models.SortSpec {
	spec := models.DefaultSort
	by := c.Query("sortBy")
	for _, field := range allowed {
		if by == field {
			spec.By = by
			break
		}
	}
	if dir := c.Query("sortDir"); dir == string(models.SortAsc) {
		spec.Dir = models.SortAsc
	}
	return spec
}

// Auth handlers

// register creates an account and logs it straight in.
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 50 {
		c.JSON(http.StatusBadRequest, models.Fail("username must be between 3 and 50 characters"))
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, models.Fail("password must be at least 8 characters"))
		return
	}

	user, err := s.store.CreateUser(req.Username, req.Email, req.Password, req.ShopOwner)
	if err != nil {
		fail(c, err)
		return
	}

	token, expiresIn, err := s.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.Fail("failed to issue token"))
		return
	}

	c.JSON(http.StatusCreated, models.OK(models.LoginResponse{Token: token, ExpiresIn: expiresIn}))
}

// login authenticates and returns a fresh token.
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	user, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	token, expiresIn, err := s.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.Fail("failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, models.OK(models.LoginResponse{Token: token, ExpiresIn: expiresIn}))
}

// Admin handlers

func (s *Server) listUsers(c *gin.Context) {
	page, size := pageParams(c, 20)
	c.JSON(http.StatusOK, models.OK(s.store.ListUsers(page, size)))
}

func (s *Server) updateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, models.Fail("invalid role"))
		return
	}

	if err := s.store.SetUserRole(id, req.Role); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKMessage("role updated"))
}

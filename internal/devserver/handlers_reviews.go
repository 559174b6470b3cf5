package devserver

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"noodlemap/pkg/models"
)

// maxUploadBytes caps a multipart review submission.
const maxUploadBytes = 20 << 20

func (s *Server) listShopReviews(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, exists := s.store.GetShop(shopID); !exists {
		c.JSON(http.StatusNotFound, models.Fail("shop not found"))
		return
	}

	page, size := pageParams(c, 5)
	spec := sortParams(c, models.SortByCreatedAt, models.SortByRating)

	c.JSON(http.StatusOK, models.OK(s.store.ListShopReviews(shopID, page, size, spec)))
}

func (s *Server) listReplies(c *gin.Context) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	replies, err := s.store.ListReplies(models.ReviewID(parentID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(replies))
}

// createReview accepts either a plain JSON body or a multipart form with a
// "review" JSON field plus "photos" file parts.
func (s *Server) createReview(c *gin.Context) {
	user, _ := currentUser(c)

	var (
		req   models.CreateReviewRequest
		media []models.MediaRef
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var ok bool
		req, media, ok = s.parseMultipartReview(c)
		if !ok {
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	review, err := s.store.CreateReview(user.ID, req, media)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.OK(review))
}

func (s *Server) parseMultipartReview(c *gin.Context) (models.CreateReviewRequest, []models.MediaRef, bool) {
	var req models.CreateReviewRequest

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "request body too large") {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, models.Fail("invalid multipart form"))
		return req, nil, false
	}

	fields := form.Value["review"]
	if len(fields) != 1 {
		c.JSON(http.StatusBadRequest, models.Fail("missing review field"))
		return req, nil, false
	}
	if err := json.Unmarshal([]byte(fields[0]), &req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid review field"))
		return req, nil, false
	}

	// Files are not persisted anywhere; the store only needs a stable URL.
	var media []models.MediaRef
	for _, fh := range form.File["photos"] {
		mediaType := "image"
		if strings.HasPrefix(fh.Header.Get("Content-Type"), "video/") {
			mediaType = "video"
		}
		media = append(media, models.MediaRef{
			URL:  "/media/" + uuid.NewString() + path.Ext(fh.Filename),
			Type: mediaType,
		})
	}
	return req, media, true
}

func (s *Server) updateReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.canManageReview(c, models.ReviewID(id)) {
		return
	}

	var req models.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	review, err := s.store.UpdateReview(models.ReviewID(id), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(review))
}

func (s *Server) deleteReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.canManageReview(c, models.ReviewID(id)) {
		return
	}

	if err := s.store.DeleteReview(models.ReviewID(id)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKMessage("review deleted"))
}

func (s *Server) addReviewMedia(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.canManageReview(c, models.ReviewID(id)) {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid multipart form"))
		return
	}

	var media []models.MediaRef
	for _, fh := range form.File["photos"] {
		mediaType := "image"
		if strings.HasPrefix(fh.Header.Get("Content-Type"), "video/") {
			mediaType = "video"
		}
		media = append(media, models.MediaRef{
			URL:  "/media/" + uuid.NewString() + path.Ext(fh.Filename),
			Type: mediaType,
		})
	}
	if len(media) == 0 {
		c.JSON(http.StatusBadRequest, models.Fail("no photos attached"))
		return
	}

	added, err := s.store.AddReviewMedia(models.ReviewID(id), media)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.OK(added))
}

func (s *Server) deleteReviewMedia(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	mediaID, ok := pathID(c, "media_id")
	if !ok {
		return
	}
	if !s.canManageReview(c, models.ReviewID(id)) {
		return
	}

	if err := s.store.DeleteReviewMedia(models.ReviewID(id), mediaID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKMessage("media removed"))
}

// canManageReview writes the error response itself when the caller is
// neither the author nor an admin.
func (s *Server) canManageReview(c *gin.Context, id models.ReviewID) bool {
	review, exists := s.store.GetReview(id)
	if !exists {
		c.JSON(http.StatusNotFound, models.Fail("review not found"))
		return false
	}

	user, _ := currentUser(c)
	if review.User.ID == user.ID || hasRole(user, models.RoleAdmin) {
		return true
	}
	c.JSON(http.StatusForbidden, models.Fail("not the review author"))
	return false
}

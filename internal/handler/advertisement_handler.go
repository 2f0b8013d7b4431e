package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"adboard/internal/forms"
	"adboard/internal/geocode"
	"adboard/internal/logger"
	"adboard/internal/service"
	"adboard/internal/storage"

	"github.com/gin-gonic/gin"
)

// AdvertisementHandler handles listing, creation and location lookups
type AdvertisementHandler struct {
	service service.AdvertisementService
}

// NewAdvertisementHandler creates a new AdvertisementHandler
func NewAdvertisementHandler(s service.AdvertisementService) *AdvertisementHandler {
	return &AdvertisementHandler{service: s}
}

func (h *AdvertisementHandler) Index(c *gin.Context) {
	ads, err := h.service.List(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Error listing advertisements")
		renderError(c, http.StatusInternalServerError, "Failed to load advertisements")
		return
	}
	render(c, http.StatusOK, "index.html", gin.H{"Advertisements": ads})
}

func (h *AdvertisementHandler) AddForm(c *gin.Context) {
	render(c, http.StatusOK, "add.html", gin.H{"Title": "Add advertisement", "Form": forms.AdForm{}})
}

func (h *AdvertisementHandler) Add(c *gin.Context) {
	var form forms.AdForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "add.html", gin.H{
			"Title":  "Add advertisement",
			"Form":   form,
			"Errors": forms.FieldErrors{"form": "Invalid form submission."},
		})
		return
	}
	form.Image = uploadedImage(c)

	input, fieldErrs := form.Validate()
	if fieldErrs.Any() {
		render(c, http.StatusUnprocessableEntity, "add.html", gin.H{"Title": "Add advertisement", "Form": form, "Errors": fieldErrs})
		return
	}

	_, err := h.service.Create(c.Request.Context(), *input, form.Image)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImageFormat) || errors.Is(err, storage.ErrImageTooLarge) {
			render(c, http.StatusUnprocessableEntity, "add.html", gin.H{
				"Title":  "Add advertisement",
				"Form":   form,
				"Errors": forms.FieldErrors{"image": err.Error()},
			})
			return
		}
		logger.Error().Err(err).Msg("Error creating advertisement")
		renderError(c, http.StatusInternalServerError, "Failed to save advertisement")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// GetLocation answers with the coordinates of an address as JSON. No match and
// an unreachable geocoder both answer 404 {"error": "Location not found"}, not a
// 200 carrying an error body, so clients can branch on the status code alone.
func (h *AdvertisementHandler) GetLocation(c *gin.Context) {
	address := c.Param("address")
	coords, err := h.service.Locate(c.Request.Context(), address)
	if err != nil {
		if !errors.Is(err, geocode.ErrLocationNotFound) {
			logger.Warn().Err(err).Str("address", address).Msg("Geocoding lookup failed")
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}
	c.JSON(http.StatusOK, coords)
}

// uploadedImage returns nil when the request carries no file in "image"
func uploadedImage(c *gin.Context) *multipart.FileHeader {
	fh, err := c.FormFile("image")
	if err != nil || fh.Filename == "" {
		return nil
	}
	return fh
}

// RegisterAdvertisementRoutes registers advertisement routes
func (h *AdvertisementHandler) RegisterAdvertisementRoutes(r gin.IRoutes, authMW gin.HandlerFunc) {
	r.GET("/", h.Index)
	r.GET("/add", authMW, h.AddForm)
	r.POST("/add", authMW, h.Add)
	r.GET("/get_location/:address", h.GetLocation)
}

package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/internal/middleware"
)

type StoreController struct {
	storeService service.StoreService
}

func NewStoreController(storeService service.StoreService) *StoreController {
	return &StoreController{storeService: storeService}
}

type CreateStoreRequest struct {
	Code        string `json:"code" binding:"omitempty,max=40"`
	Name        string `json:"name" binding:"required,max=255"`
	Address     string `json:"address"`
	Phone       string `json:"phone" binding:"omitempty,max=30"`
	Email       string `json:"email" binding:"omitempty,email"`
	ContactName string `json:"contact_name" binding:"omitempty,max=100"`
	Status      string `json:"status" binding:"omitempty,oneof=active inactive archived"`
	Description string `json:"description"`
}

type UpdateStoreRequest struct {
	Code        *string `json:"code" binding:"omitempty,min=1,max=40"`
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone" binding:"omitempty,max=30"`
	Email       *string `json:"email" binding:"omitempty,email"`
	ContactName *string `json:"contact_name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

type ChangeStoreStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive archived"`
}

func (ctrl *StoreController) ListStores(c *gin.Context) {
	filter := repository.StoreFilter{Search: c.Query("search")}
	if status := c.Query("status"); status != "" {
		s := model.StoreStatus(status)
		filter.Status = &s
	}

	stores, err := ctrl.storeService.ListStores(c.Request.Context(), filter)
	if err != nil {
		errors.Respond(c, err, "store")
		return
	}
	if stores == nil {
		stores = []model.Store{}
	}
	c.JSON(http.StatusOK, stores)
}

func (ctrl *StoreController) GetStore(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	store, err := ctrl.storeService.GetStore(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "store")
		return
	}
	c.JSON(http.StatusOK, store)
}

func (ctrl *StoreController) CreateStore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := ctrl.storeService.CreateStore(c.Request.Context(), service.StoreInput{
		Code:        req.Code,
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		ContactName: req.ContactName,
		Status:      model.StoreStatus(req.Status),
		Description: req.Description,
	})
	if err != nil {
		errors.Respond(c, err, "store")
		return
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"user_id":  userID,
	})
	c.JSON(http.StatusCreated, store)
}

func (ctrl *StoreController) UpdateStore(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := ctrl.storeService.UpdateStore(c.Request.Context(), id, service.StoreMutation{
		Code:        req.Code,
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		ContactName: req.ContactName,
		Description: req.Description,
	})
	if err != nil {
		errors.Respond(c, err, "store")
		return
	}
	c.JSON(http.StatusOK, store)
}

// ChangeStatus handles PATCH /stores/:id/status
func (ctrl *StoreController) ChangeStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ChangeStoreStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := ctrl.storeService.ChangeStatus(c.Request.Context(), id, model.StoreStatus(req.Status))
	if err != nil {
		errors.Respond(c, err, "store")
		return
	}
	c.JSON(http.StatusOK, store)
}

func (ctrl *StoreController) DeleteStore(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.storeService.DeleteStore(c.Request.Context(), id); err != nil {
		errors.Respond(c, err, "store")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
}

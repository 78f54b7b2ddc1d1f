package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/internal/middleware"
)

// UserController is mounted under the admin-only group.
type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required,max=100"`
	Role     string `json:"role" binding:"required,oneof=admin manager staff"`
	StoreID  *uint  `json:"store_id"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=100"`
	Role       *string `json:"role" binding:"omitempty,oneof=admin manager staff"`
	StoreID    *uint   `json:"store_id"`
	ClearStore bool    `json:"clear_store"`
	IsActive   *bool   `json:"is_active"`
	Password   *string `json:"password"`
}

func (ctrl *UserController) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{}
	if role := c.Query("role"); role != "" {
		r := model.UserRole(role)
		filter.Role = &r
	}
	storeID, ok := optionalUintQuery(c, "storeId")
	if !ok {
		return
	}
	filter.StoreID = storeID
	if active := c.Query("active"); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			errors.BadRequest(c, errors.ValidationInvalidInput, "query parameter active must be true or false")
			return
		}
		filter.IsActive = &v
	}

	users, err := ctrl.userService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		errors.Respond(c, err, "user")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctrl *UserController) CreateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.userService.CreateUser(c.Request.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.UserRole(req.Role),
		StoreID:  req.StoreID,
	})
	if err != nil {
		errors.Respond(c, err, "user")
		return
	}

	actorID, _ := middleware.GetUserID(c)
	log.Info("User created", map[string]interface{}{
		"user_id":  user.ID,
		"role":     user.Role,
		"actor_id": actorID,
	})
	c.JSON(http.StatusCreated, user)
}

func (ctrl *UserController) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.UpdateUserInput{
		Name:       req.Name,
		StoreID:    req.StoreID,
		ClearStore: req.ClearStore,
		IsActive:   req.IsActive,
		Password:   req.Password,
	}
	if req.Role != nil {
		r := model.UserRole(*req.Role)
		input.Role = &r
	}

	user, err := ctrl.userService.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		errors.Respond(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctrl *UserController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(c)

	if err := ctrl.userService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		errors.Respond(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

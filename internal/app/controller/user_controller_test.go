package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUserRoutes(env *testEnv) {
	users := NewUserController(service.NewUserService(repository.NewUserRepository(env.db), repository.NewStoreRepository(env.db)))
	env.router.GET("/users", users.ListUsers)
	env.router.POST("/users", users.CreateUser)
	env.router.PUT("/users/:id", users.UpdateUser)
	env.router.DELETE("/users/:id", users.DeleteUser)
}

func TestUserController_Lifecycle(t *testing.T) {
	env := setupTestEnv(t)
	registerUserRoutes(env)

	w := env.do(t, http.MethodPost, "/users", map[string]interface{}{
		"email":    "Owner@Example.com",
		"password": "Owner1234",
		"name":     "Owner",
		"role":     "admin",
	})
	mustStatus(t, w, http.StatusCreated)
	var owner model.User
	decode(t, w, &owner)
	assert.Equal(t, "owner@example.com", owner.Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPost, "/users", map[string]interface{}{
		"email":    "clerk@example.com",
		"password": "Clerk1234",
		"name":     "Clerk",
		"role":     "staff",
		"store_id": env.store.ID,
	})
	mustStatus(t, w, http.StatusCreated)
	var clerk model.User
	decode(t, w, &clerk)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/users?storeId=%d", env.store.ID), nil)
	mustStatus(t, w, http.StatusOK)
	var users []model.User
	decode(t, w, &users)
	require.Len(t, users, 1)
	assert.Equal(t, clerk.ID, users[0].ID)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/users/%d", clerk.ID), map[string]interface{}{
		"role":        "manager",
		"clear_store": true,
	})
	mustStatus(t, w, http.StatusOK)
	var updated model.User
	decode(t, w, &updated)
	assert.Equal(t, model.RoleManager, updated.Role)
	assert.Nil(t, updated.StoreID)

	mustStatus(t, env.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", clerk.ID), nil), http.StatusOK)
}

func TestUserController_Errors(t *testing.T) {
	env := setupTestEnv(t)
	registerUserRoutes(env)

	body := map[string]interface{}{
		"email":    "owner@example.com",
		"password": "Owner1234",
		"name":     "Owner",
		"role":     "admin",
	}
	mustStatus(t, env.do(t, http.MethodPost, "/users", body), http.StatusCreated)

	w := env.do(t, http.MethodPost, "/users", body)
	mustStatus(t, w, http.StatusBadRequest)
	var resp errorBody
	decode(t, w, &resp)
	assert.Equal(t, errors.UserEmailExists, resp.Code)

	body["email"] = "weak@example.com"
	body["password"] = "short"
	mustStatus(t, env.do(t, http.MethodPost, "/users", body), http.StatusBadRequest)

	// The request context runs as user 1, which is the account created above.
	w = env.do(t, http.MethodDelete, "/users/1", nil)
	mustStatus(t, w, http.StatusBadRequest)
	decode(t, w, &resp)
	assert.Equal(t, errors.UserSelfDeletion, resp.Code)
}
